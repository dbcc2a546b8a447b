package dag

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [DAG.AddNode] when a node with the
	// same ID already exists in the graph. Rooms and objects share one
	// namespace, so a room named like an object is also a duplicate.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From (parent)
	// node does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To (child)
	// node does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrRoomHasParent is returned by [DAG.AddEdge] when the edge would
	// attach a room to something. Rooms are always top-level.
	ErrRoomHasParent = errors.New("rooms cannot be attached")

	// ErrMultipleParents is returned by [DAG.AddEdge] when the child already
	// has a parent. Attachment hierarchies are forests.
	ErrMultipleParents = errors.New("node already has a parent")

	// ErrGraphHasCycle is returned by [DAG.TopoSort] and [DAG.Validate] when
	// a cycle is detected.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Metadata stores arbitrary key-value pairs attached to nodes or the graph.
// Metadata maps are never nil after being added to a graph.
type Metadata map[string]any

// NodeKind distinguishes rooms from the objects placed in them.
type NodeKind int

const (
	// NodeKindObject is a placed object. Objects may have at most one parent.
	NodeKindObject NodeKind = iota
	// NodeKindRoom is a room anchor. Rooms never have a parent.
	NodeKindRoom
)

func (k NodeKind) String() string {
	switch k {
	case NodeKindRoom:
		return "room"
	case NodeKindObject:
		return "object"
	}
	return "unknown"
}

// Node is a vertex in the attachment graph.
//
// Index is assigned by [DAG.AddNode] and records declaration order. It is
// the tie-breaker for every ordering the package produces.
type Node struct {
	ID    string
	Kind  NodeKind
	Index int
	Meta  Metadata
}

// IsRoom reports whether the node is a room anchor.
func (n Node) IsRoom() bool { return n.Kind == NodeKindRoom }

// Edge is an attachment: To is attached to From.
type Edge struct {
	From string // parent
	To   string // child
	Meta Metadata
}

// DAG is a directed attachment graph with edges pointing from parent to
// child. Despite the name it may transiently contain cycles while being
// built; [DAG.FindCycle] and [DAG.TopoSort] detect them.
//
// The zero value is not usable; use New. DAG is not safe for concurrent
// mutation.
type DAG struct {
	nodes    map[string]*Node
	order    []*Node
	edges    []Edge
	outgoing map[string][]string // parent -> children, in insertion order
	incoming map[string][]string // child -> parents
	meta     Metadata
}

// New creates an empty graph with optional graph-level metadata.
func New(meta Metadata) *DAG {
	if meta == nil {
		meta = Metadata{}
	}
	return &DAG{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		meta:     meta,
	}
}

// Meta returns the graph-level metadata map.
func (d *DAG) Meta() Metadata { return d.meta }

// AddNode adds a node to the graph. Its Index is overwritten with the
// node's declaration position.
func (d *DAG) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := d.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	n.Index = len(d.order)
	node := &n
	d.nodes[node.ID] = node
	d.order = append(d.order, node)
	return nil
}

// AddEdge attaches e.To to e.From. Both nodes must exist, the child must
// not be a room and must not already have a parent.
func (d *DAG) AddEdge(e Edge) error {
	if _, ok := d.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	child, ok := d.nodes[e.To]
	if !ok {
		return ErrUnknownTargetNode
	}
	if child.IsRoom() {
		return ErrRoomHasParent
	}
	if len(d.incoming[e.To]) > 0 {
		return ErrMultipleParents
	}
	if e.Meta == nil {
		e.Meta = Metadata{}
	}
	d.edges = append(d.edges, e)
	d.outgoing[e.From] = append(d.outgoing[e.From], e.To)
	d.incoming[e.To] = append(d.incoming[e.To], e.From)
	return nil
}

// Nodes returns all nodes in declaration order.
func (d *DAG) Nodes() []*Node { return slices.Clone(d.order) }

// NodesOfKind returns the nodes of the given kind in declaration order.
func (d *DAG) NodesOfKind(kind NodeKind) []*Node {
	var out []*Node
	for _, n := range d.order {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// Edges returns a copy of all edges in insertion order.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// NodeCount returns the number of nodes in the graph.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges in the graph.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// Children returns the IDs of nodes attached to id, in insertion order.
// The returned slice must not be modified.
func (d *DAG) Children(id string) []string { return d.outgoing[id] }

// Parent returns the ID of the node id is attached to, if any.
func (d *DAG) Parent(id string) (string, bool) {
	if p := d.incoming[id]; len(p) > 0 {
		return p[0], true
	}
	return "", false
}

// OutDegree returns the number of nodes attached to id.
func (d *DAG) OutDegree(id string) int { return len(d.outgoing[id]) }

// InDegree returns 1 if id is attached to something, 0 otherwise.
func (d *DAG) InDegree(id string) int { return len(d.incoming[id]) }

// Node returns the node with the given ID.
func (d *DAG) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Sources returns nodes with no parent in declaration order. These are
// the rooms plus every object attached to the scene root.
func (d *DAG) Sources() []*Node {
	var sources []*Node
	for _, n := range d.order {
		if len(d.incoming[n.ID]) == 0 {
			sources = append(sources, n)
		}
	}
	return sources
}

// Sinks returns nodes nothing is attached to, in declaration order.
func (d *DAG) Sinks() []*Node {
	var sinks []*Node
	for _, n := range d.order {
		if len(d.outgoing[n.ID]) == 0 {
			sinks = append(sinks, n)
		}
	}
	return sinks
}

// Validate returns ErrGraphHasCycle if the graph contains a cycle.
func (d *DAG) Validate() error {
	if d.FindCycle() != nil {
		return ErrGraphHasCycle
	}
	return nil
}

// Depth returns the number of attachment hops between id and the top of
// its tree. Sources have depth 0. The result is undefined for nodes on a
// cycle; call [DAG.Validate] first.
func (d *DAG) Depth(id string) int {
	depth := 0
	for seen := 0; seen <= len(d.order); seen++ {
		p, ok := d.Parent(id)
		if !ok {
			return depth
		}
		id = p
		depth++
	}
	return depth
}

// NodeIDs extracts the ID from each node in a slice.
func NodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
