package cluster

// Adjacency maps a session id to the ids it is related to. Keys keeps
// insertion order so every pass over the map is deterministic.
type Adjacency struct {
	Keys  []string
	edges map[string][]string
	index map[string]map[string]struct{}
}

// NewAdjacency returns an empty adjacency map.
func NewAdjacency() *Adjacency {
	return &Adjacency{
		edges: make(map[string][]string),
		index: make(map[string]map[string]struct{}),
	}
}

// AddNode registers id without neighbours. Adding an existing node is a no-op.
func (a *Adjacency) AddNode(id string) {
	if _, ok := a.edges[id]; ok {
		return
	}
	a.Keys = append(a.Keys, id)
	a.edges[id] = nil
}

// AddEdge records to as a neighbour of from, registering from if needed.
// Repeated edges are kept once.
func (a *Adjacency) AddEdge(from, to string) {
	a.AddNode(from)
	set := a.index[from]
	if set == nil {
		set = make(map[string]struct{})
		a.index[from] = set
	}
	if _, dup := set[to]; dup {
		return
	}
	set[to] = struct{}{}
	a.edges[from] = append(a.edges[from], to)
}

// setNeighbours replaces the neighbours of a registered id. ids must not
// repeat.
func (a *Adjacency) setNeighbours(id string, ids []string) {
	set := make(map[string]struct{}, len(ids))
	for _, n := range ids {
		set[n] = struct{}{}
	}
	a.edges[id] = ids
	a.index[id] = set
}

// Has reports whether id is a key.
func (a *Adjacency) Has(id string) bool {
	_, ok := a.edges[id]
	return ok
}

// Neighbours returns the ids related to id, in insertion order.
func (a *Adjacency) Neighbours(id string) []string {
	return a.edges[id]
}

// Contains reports whether to is a neighbour of from.
func (a *Adjacency) Contains(from, to string) bool {
	_, ok := a.index[from][to]
	return ok
}

// Len is the number of keys.
func (a *Adjacency) Len() int {
	return len(a.Keys)
}
