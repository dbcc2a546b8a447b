package dag

// FindCycle returns the nodes of one cycle in edge order (each node is the
// parent of the next, and the last is the parent of the first), or nil if
// the graph is acyclic.
//
// The search is a white/gray/black depth-first traversal that visits roots
// and children in declaration order, so the reported cycle is deterministic.
// It is rotated to start at its earliest-declared node.
func (d *DAG) FindCycle() []string {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(d.nodes))
	var path []string
	var cycle []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		color[id] = gray
		path = append(path, id)
		for _, child := range d.outgoing[id] {
			switch color[child] {
			case white:
				if dfs(child) {
					return true
				}
			case gray:
				for i := len(path) - 1; i >= 0; i-- {
					if path[i] == child {
						cycle = append([]string(nil), path[i:]...)
						return true
					}
				}
			}
		}
		path = path[:len(path)-1]
		color[id] = black
		return false
	}

	for _, n := range d.order {
		if color[n.ID] == white && dfs(n.ID) {
			return d.rotateToEarliest(cycle)
		}
	}
	return nil
}

func (d *DAG) rotateToEarliest(cycle []string) []string {
	start := 0
	for i, id := range cycle {
		if d.nodes[id].Index < d.nodes[cycle[start]].Index {
			start = i
		}
	}
	out := make([]string, 0, len(cycle))
	out = append(out, cycle[start:]...)
	return append(out, cycle[:start]...)
}
