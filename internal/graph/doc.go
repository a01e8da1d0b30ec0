// Package graph builds the prerequisite graph of a documentation site.
//
// Nodes are pages and the concepts pages declare as prerequisites. Edges
// point from what must be learned first to what depends on it: from a
// concept to each page requiring it, and from the page introducing a key
// concept to each page that uses it.
//
// Pages can depend on each other in circles. Build repairs cycles with a
// bounded, greedy heuristic: it enumerates a limited number of simple
// cycles and cuts the weakest edge of each. The graph is still returned
// when cycles survive the budget, so consumers must tolerate a possibly
// cyclic graph.
//
// PageRank over the graph surfaces foundational pages, the ones many
// other pages build upon.
package graph
