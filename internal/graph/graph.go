package graph

import (
	"fmt"
	"slices"
)

// NodeKind distinguishes page nodes from concept nodes.
type NodeKind string

const (
	// KindPage is a documentation page.
	KindPage NodeKind = "page"
	// KindConcept is a prerequisite concept named by some page.
	KindConcept NodeKind = "concept"
)

// Relation is the meaning of an edge.
type Relation string

const (
	// RelationRequires points from a concept to a page that needs it.
	RelationRequires Relation = "requires"
	// RelationIntroduces points from the page that introduces a concept to
	// a page that uses it.
	RelationIntroduces Relation = "introduces_concept"
)

// Importance tiers of a prerequisite.
const (
	ImportanceEssential   = "essential"
	ImportanceRecommended = "recommended"
	ImportanceOptional    = "optional"
)

// Node is a vertex of the prerequisite graph.
type Node struct {
	// ID is "page_{id}" or "concept_{normalized name}".
	ID   string
	Kind NodeKind

	// Label is the page title or the concept name as first written.
	Label string

	// Page attributes. Zero for concept nodes.
	PageID        int64
	URL           string
	DocType       string
	AudienceLevel string

	// PrereqType is the prerequisite type of a concept node.
	PrereqType string
}

// Edge is a directed, weighted dependency.
type Edge struct {
	From       string
	To         string
	Relation   Relation
	Importance string
	PrereqType string

	// Concept is the shared term of an introduces_concept edge.
	Concept string

	Weight float64

	// Seq is the order in which the edge was discovered. It breaks ties
	// when choosing an edge to remove.
	Seq int
}

// Stats summarizes graph size.
type Stats struct {
	Nodes        int `json:"total_nodes"`
	Edges        int `json:"total_edges"`
	PageNodes    int `json:"page_nodes"`
	ConceptNodes int `json:"concept_nodes"`
}

// Graph is a directed graph of pages and concepts. It keeps insertion
// order for nodes and discovery order for edges, so every traversal is
// deterministic. A Graph is not safe for concurrent mutation.
type Graph struct {
	nodes   map[string]*Node
	order   []string
	index   map[string]int
	out     map[string][]*Edge
	edges   map[[2]string]*Edge
	seq     int
	removed []Edge
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		index: make(map[string]int),
		out:   make(map[string][]*Edge),
		edges: make(map[[2]string]*Edge),
	}
}

// PageNodeID returns the node id of a page.
func PageNodeID(pageID int64) string {
	return fmt.Sprintf("page_%d", pageID)
}

// AddNode inserts n. It reports false and leaves the graph unchanged when
// a node with the same id exists.
func (g *Graph) AddNode(n Node) bool {
	if _, ok := g.nodes[n.ID]; ok {
		return false
	}
	g.nodes[n.ID] = &n
	g.index[n.ID] = len(g.order)
	g.order = append(g.order, n.ID)
	return true
}

// AddEdge inserts e and assigns its discovery sequence. Both endpoints
// must exist. An edge between the same ordered pair is kept once; the
// first one wins and AddEdge reports false.
func (g *Graph) AddEdge(e Edge) bool {
	if _, ok := g.nodes[e.From]; !ok {
		return false
	}
	if _, ok := g.nodes[e.To]; !ok {
		return false
	}
	key := [2]string{e.From, e.To}
	if _, ok := g.edges[key]; ok {
		return false
	}
	e.Seq = g.seq
	g.seq++
	stored := &e
	g.edges[key] = stored
	g.out[e.From] = append(g.out[e.From], stored)
	return true
}

// RemoveEdge deletes the edge from -> to and records it as removed.
func (g *Graph) RemoveEdge(from, to string) bool {
	key := [2]string{from, to}
	e, ok := g.edges[key]
	if !ok {
		return false
	}
	delete(g.edges, key)
	g.out[from] = slices.DeleteFunc(g.out[from], func(x *Edge) bool { return x == e })
	g.removed = append(g.removed, *e)
	return true
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// HasEdge reports whether the edge from -> to exists.
func (g *Graph) HasEdge(from, to string) bool {
	_, ok := g.edges[[2]string{from, to}]
	return ok
}

// EdgeBetween returns the edge from -> to.
func (g *Graph) EdgeBetween(from, to string) (Edge, bool) {
	e, ok := g.edges[[2]string{from, to}]
	if !ok {
		return Edge{}, false
	}
	return *e, true
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	nodes := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, *g.nodes[id])
	}
	return nodes
}

// Edges returns all edges in discovery order.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, len(g.edges))
	for _, e := range g.edges {
		edges = append(edges, *e)
	}
	slices.SortFunc(edges, func(a, b Edge) int { return a.Seq - b.Seq })
	return edges
}

// Removed returns edges deleted by RemoveEdge, in removal order.
func (g *Graph) Removed() []Edge {
	return slices.Clone(g.removed)
}

// Successors returns the targets of edges leaving id, in discovery order.
func (g *Graph) Successors(id string) []string {
	succ := make([]string, 0, len(g.out[id]))
	for _, e := range g.out[id] {
		succ = append(succ, e.To)
	}
	return succ
}

// NumNodes returns the node count.
func (g *Graph) NumNodes() int {
	return len(g.order)
}

// NumEdges returns the edge count.
func (g *Graph) NumEdges() int {
	return len(g.edges)
}

// Stats returns node and edge counts.
func (g *Graph) Stats() Stats {
	s := Stats{Nodes: len(g.order), Edges: len(g.edges)}
	for _, n := range g.nodes {
		switch n.Kind {
		case KindPage:
			s.PageNodes++
		case KindConcept:
			s.ConceptNodes++
		}
	}
	return s
}
