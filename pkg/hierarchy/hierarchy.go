// Package hierarchy resolves the attachment structure of a scene document.
//
// [Resolve] builds the attachment graph from rooms and objects, rejects
// duplicate identifiers, dangling parents and attachment cycles, and
// returns the objects in a stable parent-first order.
package hierarchy

import (
	"slices"

	"github.com/matzehuels/blockout/pkg/dag"
	"github.com/matzehuels/blockout/pkg/errors"
	"github.com/matzehuels/blockout/pkg/scene"
)

// Kind says what an object is attached to.
type Kind int

const (
	// Root is the implicit scene root.
	Root Kind = iota
	// Room is a room anchor.
	Room
	// Object is another object.
	Object
)

func (k Kind) String() string {
	switch k {
	case Room:
		return "room"
	case Object:
		return "object"
	}
	return "root"
}

// Target is a resolved parent reference. ID is empty for Root.
type Target struct {
	Kind Kind
	ID   string
}

// IsRoot reports whether t is the scene root.
func (t Target) IsRoot() bool { return t.Kind == Root }

// Result is the resolved hierarchy of a document.
type Result struct {
	// Order lists every object id, parents before children, ties broken
	// by declaration order.
	Order []string
	// Parents maps each object id to what it is attached to.
	Parents map[string]Target
	// Depth maps each object id to its attachment depth. Objects attached
	// to the root or to a room have depth 0.
	Depth map[string]int
	// Graph is the validated attachment graph.
	Graph *dag.DAG
}

// Children returns the ids of objects attached directly to t, in Order.
func (r *Result) Children(t Target) []string {
	var out []string
	for _, id := range r.Order {
		if r.Parents[id] == t {
			out = append(out, id)
		}
	}
	return out
}

// Resolve validates the attachment structure of doc.
//
// Errors, checked in this order:
//   - DUPLICATE_ID when a room name or object id is declared twice, including
//     an object id equal to a room name
//   - DANGLING_PARENT when an object names a parent that does not exist
//   - CYCLIC_ATTACHMENT when objects are attached in a loop; the error
//     subjects list every node of the cycle in parent-chain order
//
// Resolve does not look at positions or dimensions.
func Resolve(doc scene.Document) (Result, error) {
	g := dag.New(nil)

	for _, r := range doc.Rooms {
		if err := g.AddNode(dag.Node{ID: r.Name, Kind: dag.NodeKindRoom}); err != nil {
			return Result{}, nodeError(err, r.Name)
		}
	}
	for _, o := range doc.Objects {
		if err := g.AddNode(dag.Node{ID: o.ID, Kind: dag.NodeKindObject, Meta: dag.Metadata{"type": o.Type}}); err != nil {
			return Result{}, nodeError(err, o.ID)
		}
	}

	parents := make(map[string]Target, len(doc.Objects))
	for _, o := range doc.Objects {
		pid := o.ParentID()
		if pid == "" {
			parents[o.ID] = Target{Kind: Root}
			continue
		}
		pn, ok := g.Node(pid)
		if !ok {
			return Result{}, errors.DanglingParent(o.ID, pid)
		}
		if err := g.AddEdge(dag.Edge{From: pid, To: o.ID}); err != nil {
			return Result{}, errors.Wrap(errors.ErrCodeInternal, err, "attach %s", o.ID)
		}
		if pn.IsRoom() {
			parents[o.ID] = Target{Kind: Room, ID: pid}
		} else {
			parents[o.ID] = Target{Kind: Object, ID: pid}
		}
	}

	if cycle := g.FindCycle(); cycle != nil {
		return Result{}, errors.CyclicAttachment(parentChain(g, cycle))
	}

	sorted, err := g.TopoSort()
	if err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeInternal, err, "sort attachment graph")
	}

	res := Result{
		Order:   make([]string, 0, len(doc.Objects)),
		Parents: parents,
		Depth:   make(map[string]int, len(doc.Objects)),
		Graph:   g,
	}
	for _, id := range sorted {
		n, _ := g.Node(id)
		if n.IsRoom() {
			continue
		}
		res.Order = append(res.Order, id)
		if t := parents[id]; t.Kind == Object {
			res.Depth[id] = res.Depth[t.ID] + 1
		} else {
			res.Depth[id] = 0
		}
	}
	return res, nil
}

func nodeError(err error, id string) error {
	if err == dag.ErrDuplicateNodeID {
		return errors.DuplicateID(id)
	}
	return errors.Schema(id, "id", "invalid identifier %q", id)
}

// parentChain turns a cycle reported in edge order (parent to child) into
// child-to-parent order starting at the earliest-declared node, which is
// how a user reads "a is on b, b is on c, c is on a".
func parentChain(g *dag.DAG, cycle []string) []string {
	chain := slices.Clone(cycle)
	slices.Reverse(chain)

	start := 0
	for i, id := range chain {
		a, _ := g.Node(id)
		b, _ := g.Node(chain[start])
		if a.Index < b.Index {
			start = i
		}
	}
	out := make([]string, 0, len(chain))
	out = append(out, chain[start:]...)
	return append(out, chain[:start]...)
}
