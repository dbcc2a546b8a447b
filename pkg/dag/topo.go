package dag

import "slices"

// TopoSort returns every node ID ordered so that each parent precedes its
// children. Among nodes that are ready at the same time the one declared
// first wins, which makes the order stable: an acyclic document always
// sorts the same way, and a document that is already in parent-first order
// sorts to itself.
//
// Returns ErrGraphHasCycle if some nodes can never become ready.
func (d *DAG) TopoSort() ([]string, error) {
	n := len(d.order)
	indeg := make([]int, n)
	for _, node := range d.order {
		indeg[node.Index] = len(d.incoming[node.ID])
	}

	var ready []int
	for i := range n {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]string, 0, n)
	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]

		id := d.order[i].ID
		order = append(order, id)
		for _, child := range d.outgoing[id] {
			j := d.nodes[child].Index
			indeg[j]--
			if indeg[j] == 0 {
				// Insert while keeping ready sorted.
				k, _ := slices.BinarySearch(ready, j)
				ready = slices.Insert(ready, k, j)
			}
		}
	}

	if len(order) != n {
		return nil, ErrGraphHasCycle
	}
	return order, nil
}
