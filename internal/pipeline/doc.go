// Package pipeline runs the taxonomy build stages for one client or for
// several clients at once.
//
// A build moves through fixed stages:
//
//	aggregate -> (cluster | graph) -> summarize -> categorize -> assemble
//
// Clustering and prerequisite graph construction run concurrently. Each
// stage is logged with its name and wall time.
//
// Design decision: Only missing input (no pages, no embeddings) and
// cancellation fail a build. Degenerate clustering and summarizer
// failures degrade it and are reported as warnings, so a taxonomy is
// always produced for inspection.
package pipeline
