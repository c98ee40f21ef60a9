package systems

import "slices"

// AdhesionGraph is the undirected bond relation between cells, keyed by cell ID.
// Bonds are symmetric: Bond(a, b) makes each a partner of the other.
type AdhesionGraph struct {
	adj map[uint32]map[uint32]struct{}
}

// NewAdhesionGraph returns an empty graph.
func NewAdhesionGraph() *AdhesionGraph {
	return &AdhesionGraph{adj: make(map[uint32]map[uint32]struct{})}
}

// Bond links a and b. Returns false for a self-bond or an existing bond.
func (g *AdhesionGraph) Bond(a, b uint32) bool {
	if a == b || g.Bonded(a, b) {
		return false
	}
	g.link(a, b)
	g.link(b, a)
	return true
}

func (g *AdhesionGraph) link(from, to uint32) {
	set, ok := g.adj[from]
	if !ok {
		set = make(map[uint32]struct{})
		g.adj[from] = set
	}
	set[to] = struct{}{}
}

// Unbond removes the bond between a and b. Returns false if there was none.
func (g *AdhesionGraph) Unbond(a, b uint32) bool {
	if !g.Bonded(a, b) {
		return false
	}
	g.unlink(a, b)
	g.unlink(b, a)
	return true
}

func (g *AdhesionGraph) unlink(from, to uint32) {
	set := g.adj[from]
	delete(set, to)
	if len(set) == 0 {
		delete(g.adj, from)
	}
}

// Bonded reports whether a and b are bonded.
func (g *AdhesionGraph) Bonded(a, b uint32) bool {
	_, ok := g.adj[a][b]
	return ok
}

// Remove severs every bond of id and returns how many were cut.
func (g *AdhesionGraph) Remove(id uint32) int {
	set := g.adj[id]
	for p := range set {
		g.unlink(p, id)
	}
	delete(g.adj, id)
	return len(set)
}

// Partners returns the partners of id in ascending order.
func (g *AdhesionGraph) Partners(id uint32) []uint32 {
	set := g.adj[id]
	if len(set) == 0 {
		return nil
	}
	out := make([]uint32, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Degree returns the number of partners of id.
func (g *AdhesionGraph) Degree(id uint32) int {
	return len(g.adj[id])
}

// Len returns the number of bonds.
func (g *AdhesionGraph) Len() int {
	n := 0
	for _, set := range g.adj {
		n += len(set)
	}
	return n / 2
}

// Clusters returns the connected components with at least two members.
// Each cluster is sorted ascending and clusters are ordered by their smallest ID.
func (g *AdhesionGraph) Clusters() [][]uint32 {
	roots := make([]uint32, 0, len(g.adj))
	for id := range g.adj {
		roots = append(roots, id)
	}
	slices.Sort(roots)

	seen := make(map[uint32]bool, len(roots))
	var clusters [][]uint32
	var stack []uint32
	for _, root := range roots {
		if seen[root] {
			continue
		}
		seen[root] = true
		cluster := []uint32{root}
		stack = append(stack[:0], root)
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for p := range g.adj[id] {
				if !seen[p] {
					seen[p] = true
					cluster = append(cluster, p)
					stack = append(stack, p)
				}
			}
		}
		slices.Sort(cluster)
		clusters = append(clusters, cluster)
	}
	return clusters
}
