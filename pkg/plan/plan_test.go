package plan

import (
	"bytes"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/blockout/pkg/geom"
	"github.com/matzehuels/blockout/pkg/hierarchy"
	"github.com/matzehuels/blockout/pkg/placement"
	"github.com/matzehuels/blockout/pkg/shell"
)

func sample() *Plan {
	shells := []RoomShell{
		{RoomID: "study", Width: 300, Length: 300, Height: 250, Panels: shell.Panels(300, 300, 250, shell.Options{})},
		{RoomID: "living", Width: 400, Length: 500, Height: 300, Panels: shell.Panels(400, 500, 300, shell.Options{Ceiling: true})},
	}
	h := hierarchy.Result{
		Order: []string{"desk", "lamp", "clock"},
		Depth: map[string]int{"desk": 0, "lamp": 1, "clock": 0},
	}
	instrs := []placement.Instruction{
		{ObjectID: "desk", Type: "desk", World: geom.Translation(geom.V3(10, 0, 0)), Local: geom.Translation(geom.V3(10, 0, 0)),
			Parent: hierarchy.Target{Kind: hierarchy.Room, ID: "study"}, PreserveWorld: true},
		{ObjectID: "lamp", Type: "lamp", World: geom.Translation(geom.V3(10, 0, 75)), Local: geom.Translation(geom.V3(0, 0, 75)),
			Parent: hierarchy.Target{Kind: hierarchy.Object, ID: "desk"}, PreserveWorld: true},
		{ObjectID: "clock", Type: "clock", World: geom.Identity(), Local: geom.Identity(),
			Parent: hierarchy.Target{Kind: hierarchy.Root}, PreserveWorld: true},
	}
	return New(shells, instrs, h)
}

func TestNewSortsCanonically(t *testing.T) {
	p := sample()

	var rooms []string
	for _, r := range p.Rooms {
		rooms = append(rooms, r.RoomID)
	}
	if !slices.Equal(rooms, []string{"living", "study"}) {
		t.Errorf("rooms = %v, want sorted by name", rooms)
	}

	var ids []string
	for _, pl := range p.Placements {
		ids = append(ids, pl.ObjectID)
	}
	if !slices.Equal(ids, []string{"clock", "desk", "lamp"}) {
		t.Errorf("placements = %v, want sorted by id", ids)
	}

	var ordered []string
	for _, pl := range p.InOrder() {
		ordered = append(ordered, pl.ObjectID)
	}
	if !slices.Equal(ordered, []string{"desk", "lamp", "clock"}) {
		t.Errorf("InOrder() = %v, want hierarchy order", ordered)
	}
}

func TestPlacementTargets(t *testing.T) {
	p := sample()

	tests := map[string]hierarchy.Target{
		"clock": {Kind: hierarchy.Root},
		"desk":  {Kind: hierarchy.Room, ID: "study"},
		"lamp":  {Kind: hierarchy.Object, ID: "desk"},
	}
	for id, want := range tests {
		pl, ok := p.Placement(id)
		if !ok {
			t.Fatalf("Placement(%s) missing", id)
		}
		if got := pl.Target(); got != want {
			t.Errorf("Placement(%s).Target() = %+v, want %+v", id, got, want)
		}
	}

	if _, ok := p.Placement("nope"); ok {
		t.Error("Placement(nope) found")
	}
	if r, ok := p.Room("study"); !ok || len(r.Panels) != 5 {
		t.Errorf("Room(study) = %+v, %v", r, ok)
	}
}

func TestEncode(t *testing.T) {
	p := sample()

	a, err := p.Encode()
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	b, _ := sample().Encode()
	if !bytes.Equal(a, b) {
		t.Error("Encode() is not deterministic")
	}

	s := string(a)
	for _, want := range []string{`"room_id": "living"`, `"parent": null`, `"world_position"`, `"preserve_world": true`, `"kind": "north_wall"`} {
		if !strings.Contains(s, want) {
			t.Errorf("encoded plan missing %s", want)
		}
	}
	if !strings.HasSuffix(s, "}\n") {
		t.Error("encoded plan is not newline-terminated")
	}

	back, err := Decode(a)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if !reflect.DeepEqual(back, p) {
		t.Errorf("Decode(Encode()) mismatch")
	}
}

func TestStats(t *testing.T) {
	got := sample().Stats()
	want := Stats{Rooms: 2, Panels: 11, Objects: 3, MaxDepth: 1}
	if got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}
