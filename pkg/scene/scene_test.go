package scene

import (
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/blockout/pkg/errors"
)

func referenceDefaults() Defaults {
	return Defaults{
		Room:             map[string]float64{"width": 400, "length": 500, "height": 300},
		Position:         map[string]float64{"x": 0, "y": 0, "z": 0},
		DimensionedTypes: []string{"table", "bedside_table", "desk"},
		Dimensions:       map[string]float64{"height": 75},
	}
}

func TestDecode(t *testing.T) {
	doc, err := Decode([]byte(`{
		"rooms": [{"name": "living", "width": 350}],
		"objects": [
			{"id": "lamp1", "type": "lamp", "parent": "living", "position": {"x": 1, "y": 2, "z": 0}},
			{"id": "rug", "type": "rug", "extra": "ignored"}
		]
	}`))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	if len(doc.Rooms) != 1 || doc.Rooms[0].Name != "living" {
		t.Fatalf("Rooms = %+v", doc.Rooms)
	}
	if doc.Rooms[0].Width == nil || *doc.Rooms[0].Width != 350 {
		t.Errorf("Width = %v, want 350", doc.Rooms[0].Width)
	}
	if doc.Rooms[0].Length != nil {
		t.Errorf("Length = %v, want absent", *doc.Rooms[0].Length)
	}
	if len(doc.Objects) != 2 {
		t.Fatalf("Objects count = %d, want 2", len(doc.Objects))
	}
	if got := doc.Objects[0].ParentID(); got != "living" {
		t.Errorf("ParentID() = %q, want living", got)
	}
	if doc.Objects[1].Position != nil {
		t.Errorf("Position = %+v, want absent", doc.Objects[1].Position)
	}
}

func TestDecodeTolerantShapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty object", `{}`},
		{"null arrays", `{"rooms": null, "objects": null}`},
		{"null position", `{"objects": [{"id": "a", "type": "chair", "position": null}]}`},
		{"empty parent means root", `{"objects": [{"id": "a", "type": "chair", "parent": ""}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode([]byte(tt.input))
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			for _, o := range doc.Objects {
				if o.Parent != nil {
					t.Errorf("Parent = %q, want nil", *o.Parent)
				}
			}
		})
	}
}

func TestDecodeSchemaErrors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantField string
	}{
		{"not json", `{rooms`, "document"},
		{"null document", `null`, "document"},
		{"array document", `[]`, "document"},
		{"rooms not array", `{"rooms": {"name": "a"}}`, "rooms"},
		{"room not object", `{"rooms": ["living"]}`, "rooms[0]"},
		{"width string", `{"rooms": [{"name": "a", "width": "wide"}]}`, "rooms[0].width"},
		{"missing room name", `{"rooms": [{"width": 10}]}`, "rooms[0].name"},
		{"position not map", `{"objects": [{"id": "a", "type": "t", "position": "here"}]}`, "objects[0].position"},
		{"position axis string", `{"objects": [{"id": "a", "type": "t", "position": {"x": "1"}}]}`, "objects[0].position.x"},
		{"missing object id", `{"objects": [{"type": "t"}]}`, "objects[0].id"},
		{"parent not string", `{"objects": [{"id": "a", "type": "t", "parent": 3}]}`, "objects[0].parent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			if err == nil {
				t.Fatal("Decode() error = nil, want SCHEMA_ERROR")
			}
			if !errors.Is(err, errors.ErrCodeSchema) {
				t.Fatalf("Decode() code = %v, want %v", errors.GetCode(err), errors.ErrCodeSchema)
			}
			if msg := errors.UserMessage(err); !strings.HasPrefix(msg, tt.wantField) {
				t.Errorf("UserMessage() = %q, want prefix %q", msg, tt.wantField)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	doc := Document{
		Rooms: []Room{{Name: "living"}},
		Objects: []Object{
			{ID: "lamp1", Type: "lamp", Parent: String("living")},
			{ID: "desk1", Type: "Desk", Position: &Position{X: Float(5)}},
		},
	}

	out := ApplyDefaults(doc, referenceDefaults())

	w, l, h := out.Rooms[0].Dims()
	if w != 400 || l != 500 || h != 300 {
		t.Errorf("Dims() = (%v, %v, %v), want (400, 500, 300)", w, l, h)
	}

	lamp := out.Objects[0]
	if lamp.Position == nil || lamp.Position.X == nil || lamp.Position.Y == nil || lamp.Position.Z == nil {
		t.Fatalf("lamp position = %+v, want all axes defaulted", lamp.Position)
	}
	if got := lamp.Position.Vec(); got.X != 0 || got.Y != 0 || got.Z != 0 {
		t.Errorf("lamp position = %v, want (0,0,0)", got)
	}
	if lamp.Dimensions != nil {
		t.Errorf("lamp dimensions = %v, want none for non-dimensioned type", lamp.Dimensions)
	}

	desk := out.Objects[1]
	if got := desk.Position.Vec(); got.X != 5 || got.Y != 0 || got.Z != 0 {
		t.Errorf("desk position = %v, want (5,0,0)", got)
	}
	if desk.Dimensions["height"] == nil || *desk.Dimensions["height"] != 75 {
		t.Errorf("desk dimensions = %v, want height 75 (type match is case-insensitive)", desk.Dimensions)
	}
}

func TestApplyDefaultsIsNonDestructive(t *testing.T) {
	doc := Document{
		Rooms: []Room{{Name: "hall", Width: Float(120), Length: Float(0), Height: Float(250)}},
		Objects: []Object{{
			ID:         "t1",
			Type:       "table",
			Position:   &Position{X: Float(1), Y: Float(2), Z: Float(3)},
			Dimensions: map[string]*float64{"height": Float(90), "width": Float(60)},
		}},
	}
	before := doc.Clone()

	out := ApplyDefaults(doc, referenceDefaults())

	if !reflect.DeepEqual(doc, before) {
		t.Error("ApplyDefaults() mutated its input")
	}
	if !reflect.DeepEqual(out, before) {
		t.Errorf("ApplyDefaults() changed explicit fields:\n got %+v\nwant %+v", out, before)
	}
}

func TestApplyDefaultsIgnoresUnknownKeys(t *testing.T) {
	d := referenceDefaults()
	d.Room["depth"] = 10
	d.Position["w"] = 1

	out := ApplyDefaults(Document{Rooms: []Room{{Name: "a"}}, Objects: []Object{{ID: "o"}}}, d)

	if out.Rooms[0].Width == nil || *out.Rooms[0].Width != 400 {
		t.Errorf("Width = %v, want 400", out.Rooms[0].Width)
	}
	if out.Objects[0].Position.X == nil {
		t.Error("Position.X not defaulted")
	}
}

func TestValidate(t *testing.T) {
	valid := ApplyDefaults(Document{Rooms: []Room{{Name: "a"}}, Objects: []Object{{ID: "o", Type: "chair"}}}, referenceDefaults())
	if err := Validate(valid); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	tests := []struct {
		name string
		doc  Document
		id   string
	}{
		{"zero width", Document{Rooms: []Room{{Name: "a", Width: Float(0), Length: Float(1), Height: Float(1)}}}, "a"},
		{"negative height", Document{Rooms: []Room{{Name: "b", Width: Float(1), Length: Float(1), Height: Float(-3)}}}, "b"},
		{"missing length", Document{Rooms: []Room{{Name: "c", Width: Float(1), Height: Float(1)}}}, "c"},
		{"missing position", Document{Objects: []Object{{ID: "o"}}}, "o"},
		{"partial position", Document{Objects: []Object{{ID: "p", Position: &Position{X: Float(1)}}}}, "p"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.doc)
			if !errors.Is(err, errors.ErrCodeSchema) {
				t.Fatalf("Validate() error = %v, want SCHEMA_ERROR", err)
			}
			if got := errors.Subjects(err); len(got) != 1 || got[0] != tt.id {
				t.Errorf("Subjects() = %v, want [%s]", got, tt.id)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	doc := ApplyDefaults(Document{
		Rooms:   []Room{{Name: "living"}},
		Objects: []Object{{ID: "lamp1", Type: "lamp", Parent: String("living")}},
	}, referenceDefaults())

	data, err := Encode(doc)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	back, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if !reflect.DeepEqual(back, doc) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", back, doc)
	}
}
