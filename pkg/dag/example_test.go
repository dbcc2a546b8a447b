package dag_test

import (
	"fmt"

	"github.com/matzehuels/blockout/pkg/dag"
)

func ExampleDAG_TopoSort() {
	// A lamp declared before the desk it stands on still sorts after it.
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "living", Kind: dag.NodeKindRoom})
	_ = g.AddNode(dag.Node{ID: "lamp"})
	_ = g.AddNode(dag.Node{ID: "desk"})
	_ = g.AddEdge(dag.Edge{From: "desk", To: "lamp"})
	_ = g.AddEdge(dag.Edge{From: "living", To: "desk"})

	order, _ := g.TopoSort()
	fmt.Println(order)
	// Output:
	// [living desk lamp]
}

func ExampleDAG_FindCycle() {
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "a"})
	_ = g.AddNode(dag.Node{ID: "b"})
	_ = g.AddNode(dag.Node{ID: "c"})
	_ = g.AddEdge(dag.Edge{From: "b", To: "a"})
	_ = g.AddEdge(dag.Edge{From: "c", To: "b"})
	_ = g.AddEdge(dag.Edge{From: "a", To: "c"})

	fmt.Println(g.FindCycle())
	// Output:
	// [a c b]
}

func ExampleDAG_Sources() {
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "hall", Kind: dag.NodeKindRoom})
	_ = g.AddNode(dag.Node{ID: "coat"})
	_ = g.AddNode(dag.Node{ID: "hook"})
	_ = g.AddEdge(dag.Edge{From: "hook", To: "coat"})

	fmt.Println(dag.NodeIDs(g.Sources()))
	// Output:
	// [hall hook]
}
