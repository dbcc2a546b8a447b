// Package dag provides the attachment graph behind a scene hierarchy.
//
// # Overview
//
// Rooms and objects are nodes; an edge From a parent To a child records that
// the child is attached to the parent. Rooms are always top-level and every
// object has at most one parent, so a well-formed graph is a forest. Nodes
// attached to nothing hang off the implicit scene root.
//
// # Basic Usage
//
// Create a graph with [New], add nodes with [DAG.AddNode] in declaration
// order and attachments with [DAG.AddEdge]:
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "living", Kind: dag.NodeKindRoom})
//	g.AddNode(dag.Node{ID: "desk"})
//	g.AddNode(dag.Node{ID: "lamp"})
//	g.AddEdge(dag.Edge{From: "living", To: "desk"})
//	g.AddEdge(dag.Edge{From: "desk", To: "lamp"})
//
// # Ordering
//
// Declaration order is remembered in [Node.Index] and used to break every
// tie. [DAG.FindCycle] reports the first cycle a declaration-ordered
// depth-first search meets, and [DAG.TopoSort] is a Kahn sort that always
// releases the earliest-declared ready node, so results are reproducible
// across runs and platforms.
//
// # Concurrency
//
// DAG instances are not safe for concurrent mutation. A fully built graph
// may be read from several goroutines.
package dag
