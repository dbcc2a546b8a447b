package placement

import (
	"testing"

	"github.com/matzehuels/blockout/pkg/errors"
	"github.com/matzehuels/blockout/pkg/geom"
	"github.com/matzehuels/blockout/pkg/hierarchy"
	"github.com/matzehuels/blockout/pkg/scene"
)

func at(id, parent string, x, y, z float64) scene.Object {
	o := scene.Object{
		ID:       id,
		Type:     "cube",
		Position: &scene.Position{X: scene.Float(x), Y: scene.Float(y), Z: scene.Float(z)},
	}
	if parent != "" {
		o.Parent = scene.String(parent)
	}
	return o
}

func resolve(t *testing.T, doc scene.Document) []Instruction {
	t.Helper()
	h, err := hierarchy.Resolve(doc)
	if err != nil {
		t.Fatalf("hierarchy.Resolve() error: %v", err)
	}
	out, err := Resolve(doc, h)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	return out
}

func TestResolveChain(t *testing.T) {
	// B is declared before its parent A.
	doc := scene.Document{Objects: []scene.Object{
		at("B", "A", 0, 5, 0),
		at("A", "", 10, 0, 0),
	}}

	out := resolve(t, doc)

	if len(out) != 2 || out[0].ObjectID != "A" || out[1].ObjectID != "B" {
		t.Fatalf("order = %+v, want A then B", out)
	}
	if got := out[0].World.Location; got != geom.V3(10, 0, 0) {
		t.Errorf("A world = %v, want (10,0,0)", got)
	}
	if got := out[1].World.Location; got != geom.V3(10, 5, 0) {
		t.Errorf("B world = %v, want (10,5,0)", got)
	}
	if got := out[1].Local.Location; got != geom.V3(0, 5, 0) {
		t.Errorf("B local = %v, want (0,5,0)", got)
	}
	if out[1].Parent != (hierarchy.Target{Kind: hierarchy.Object, ID: "A"}) {
		t.Errorf("B parent = %+v, want object A", out[1].Parent)
	}
}

func TestResolveRoomChild(t *testing.T) {
	doc := scene.Document{
		Rooms:   []scene.Room{{Name: "living"}},
		Objects: []scene.Object{at("lamp1", "living", 1, 2, 0)},
	}

	out := resolve(t, doc)

	if len(out) != 1 {
		t.Fatalf("got %d instructions, want 1", len(out))
	}
	in := out[0]
	if in.World.Location != geom.V3(1, 2, 0) {
		t.Errorf("World = %v, want (1,2,0)", in.World.Location)
	}
	if in.Parent != (hierarchy.Target{Kind: hierarchy.Room, ID: "living"}) {
		t.Errorf("Parent = %+v, want room living", in.Parent)
	}
	if !in.PreserveWorld {
		t.Error("PreserveWorld = false")
	}
	if in.Type != "cube" {
		t.Errorf("Type = %q", in.Type)
	}
}

func TestResolveDeepChainAccumulates(t *testing.T) {
	doc := scene.Document{Objects: []scene.Object{
		at("a", "", 1, 1, 1),
		at("b", "a", 1, 1, 1),
		at("c", "b", 1, 1, 1),
		at("d", "c", -3, 0, 2),
	}}

	out := resolve(t, doc)

	want := map[string]geom.Vec3{
		"a": geom.V3(1, 1, 1),
		"b": geom.V3(2, 2, 2),
		"c": geom.V3(3, 3, 3),
		"d": geom.V3(0, 3, 5),
	}
	for _, in := range out {
		if in.World.Location != want[in.ObjectID] {
			t.Errorf("%s world = %v, want %v", in.ObjectID, in.World.Location, want[in.ObjectID])
		}
		if !in.World.Rotation.IsZero() || in.World.Scale != geom.One {
			t.Errorf("%s world = %+v, want translation only", in.ObjectID, in.World)
		}
	}
}

func TestResolveOrderingInvariant(t *testing.T) {
	doc := scene.Document{Objects: []scene.Object{
		at("A", "", 0, 0, 0),
		at("B", "A", 0, 0, 0),
	}}
	h, err := hierarchy.Resolve(doc)
	if err != nil {
		t.Fatalf("hierarchy.Resolve() error: %v", err)
	}
	h.Order = []string{"B", "A"}

	_, err = Resolve(doc, h)
	if !errors.Is(err, errors.ErrCodeOrderingInvariant) {
		t.Fatalf("Resolve() error = %v, want ORDERING_INVARIANT", err)
	}
	if errors.IsStructural(err) {
		t.Error("ordering invariant reported as a user-facing structural error")
	}
}
