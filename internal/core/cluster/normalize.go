package cluster

// Normalize closes a relation transitively. For every key v the result
// holds each node reachable from v's neighbours, without duplicates and
// without v itself. Edges are followed in both directions, so every node
// of a connected component ends up with the same member set (minus itself)
// even if the raw relation was not symmetric.
//
// Each component is walked once with an explicit queue; a node is queued
// at most once, so the walk is linear in nodes plus edges and depth is
// bounded by memory, not by the call stack.
func Normalize(raw *Adjacency) *Adjacency {
	undirected := make(map[string][]string, raw.Len())
	for _, from := range raw.Keys {
		for _, to := range raw.Neighbours(from) {
			if from == to {
				continue
			}
			undirected[from] = append(undirected[from], to)
			undirected[to] = append(undirected[to], from)
		}
	}

	component := make(map[string][]string, raw.Len())
	visited := make(map[string]struct{}, raw.Len())
	for _, start := range raw.Keys {
		if _, seen := visited[start]; seen {
			continue
		}
		visited[start] = struct{}{}
		members := []string{start}
		for i := 0; i < len(members); i++ {
			for _, n := range undirected[members[i]] {
				if _, seen := visited[n]; seen {
					continue
				}
				visited[n] = struct{}{}
				members = append(members, n)
			}
		}
		for _, m := range members {
			component[m] = members
		}
	}

	out := NewAdjacency()
	for _, v := range raw.Keys {
		out.AddNode(v)
		members := component[v]
		if len(members) < 2 {
			continue
		}
		rest := make([]string, 0, len(members)-1)
		for _, m := range members {
			if m != v {
				rest = append(rest, m)
			}
		}
		out.setNeighbours(v, rest)
	}
	return out
}
