// Package order arranges the pages of one module into a reading order.
//
// The order is a heuristic: pages that need less prior knowledge come
// first, then conceptual material before tutorials and references, then
// easier pages before harder ones. Titles break the remaining ties so the
// order is total and stable across runs.
//
// Design decision: The sorter looks only at each page's own prerequisite
// count. It does not consult the prerequisite graph, so a page that
// another page in the module depends on is not guaranteed to come first.
package order
