package graph

// DefaultCycleLimit bounds how many simple cycles one repair pass handles.
const DefaultCycleLimit = 10

// SimpleCycles returns up to limit elementary cycles, each as a list of
// node ids starting at its earliest-inserted node. A limit of zero or
// less returns every cycle, which can be exponential in the graph size.
//
// Enumeration uses Johnson's algorithm over nodes in insertion order, so
// the result is deterministic.
func (g *Graph) SimpleCycles(limit int) [][]string {
	preds := make(map[string][]string, len(g.order))
	for _, id := range g.order {
		for _, e := range g.out[id] {
			preds[e.To] = append(preds[e.To], id)
		}
	}

	var cycles [][]string
	for s := range g.order {
		if limit > 0 && len(cycles) >= limit {
			break
		}
		comp := g.component(s, preds)
		if len(comp) == 0 {
			continue
		}
		j := &johnson{
			g:       g,
			start:   g.order[s],
			comp:    comp,
			blocked: make(map[string]bool),
			b:       make(map[string]map[string]bool),
			limit:   limit,
			cycles:  &cycles,
		}
		j.circuit(g.order[s])
	}
	return cycles
}

// component returns the strongly connected component of the node at index
// s within the subgraph of nodes inserted at or after s. It returns nil
// when s lies on no cycle of that subgraph.
func (g *Graph) component(s int, preds map[string][]string) map[string]bool {
	start := g.order[s]
	allowed := func(id string) bool { return g.index[id] >= s }

	forward := g.reach(start, allowed, g.Successors)
	backward := g.reach(start, allowed, func(id string) []string { return preds[id] })

	comp := make(map[string]bool)
	for id := range forward {
		if backward[id] {
			comp[id] = true
		}
	}
	if len(comp) == 1 && !g.HasEdge(start, start) {
		return nil
	}
	return comp
}

func (g *Graph) reach(start string, allowed func(string) bool, next func(string) []string) map[string]bool {
	seen := map[string]bool{start: true}
	stack := []string{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, w := range next(id) {
			if !seen[w] && allowed(w) {
				seen[w] = true
				stack = append(stack, w)
			}
		}
	}
	return seen
}

type johnson struct {
	g       *Graph
	start   string
	comp    map[string]bool
	blocked map[string]bool
	b       map[string]map[string]bool
	stack   []string
	limit   int
	cycles  *[][]string
}

func (j *johnson) full() bool {
	return j.limit > 0 && len(*j.cycles) >= j.limit
}

func (j *johnson) circuit(v string) bool {
	found := false
	j.stack = append(j.stack, v)
	j.blocked[v] = true

	for _, w := range j.g.Successors(v) {
		if j.full() {
			break
		}
		if !j.comp[w] {
			continue
		}
		if w == j.start {
			*j.cycles = append(*j.cycles, append([]string(nil), j.stack...))
			found = true
		} else if !j.blocked[w] && j.circuit(w) {
			found = true
		}
	}

	if found {
		j.unblock(v)
	} else {
		for _, w := range j.g.Successors(v) {
			if !j.comp[w] {
				continue
			}
			if j.b[w] == nil {
				j.b[w] = make(map[string]bool)
			}
			j.b[w][v] = true
		}
	}

	j.stack = j.stack[:len(j.stack)-1]
	return found
}

func (j *johnson) unblock(u string) {
	j.blocked[u] = false
	for w := range j.b[u] {
		delete(j.b[u], w)
		if j.blocked[w] {
			j.unblock(w)
		}
	}
}

// HasCycle reports whether the graph contains at least one cycle.
func (g *Graph) HasCycle() bool {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(g.order))

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = grey
		for _, w := range g.Successors(id) {
			switch color[w] {
			case grey:
				return true
			case white:
				if visit(w) {
					return true
				}
			}
		}
		color[id] = black
		return false
	}

	for _, id := range g.order {
		if color[id] == white && visit(id) {
			return true
		}
	}
	return false
}

// BreakCycles removes edges until no cycle is found or the pass budget is
// spent. Each pass enumerates up to limit cycles and removes the
// lowest-weight edge of every cycle that is still intact; weight ties go
// to the earliest-discovered edge. It returns the removed edges.
//
// The repair is greedy and does not guarantee a minimum edge cut. With a
// single pass, cycles beyond the limit may survive; HasCycle tells.
func (g *Graph) BreakCycles(limit, passes int) []Edge {
	var removed []Edge
	for range max(1, passes) {
		cycles := g.SimpleCycles(limit)
		if len(cycles) == 0 {
			break
		}
		for _, c := range cycles {
			e, ok := g.weakestEdge(c)
			if !ok {
				continue
			}
			g.RemoveEdge(e.From, e.To)
			removed = append(removed, e)
		}
	}
	return removed
}

// weakestEdge returns the edge to cut in cycle c. It reports false when an
// earlier removal already broke the cycle.
func (g *Graph) weakestEdge(c []string) (Edge, bool) {
	var weakest *Edge
	for i, from := range c {
		to := c[(i+1)%len(c)]
		e, ok := g.edges[[2]string{from, to}]
		if !ok {
			return Edge{}, false
		}
		if weakest == nil || e.Weight < weakest.Weight ||
			(e.Weight == weakest.Weight && e.Seq < weakest.Seq) {
			weakest = e
		}
	}
	if weakest == nil {
		return Edge{}, false
	}
	return *weakest, true
}
