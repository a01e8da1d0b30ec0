// Package main provides the entry point for the doctaxon CLI.
//
// doctaxon builds a navigable documentation taxonomy from analyzed pages:
// it clusters page embeddings into learning modules, orders each module's
// pages, groups modules into topics and exports the result together with
// a prerequisite graph.
//
// Usage:
//
//	doctaxon import --client-id 7 --client-name "Acme Docs" pages.json
//	doctaxon build --client-id 7
//	doctaxon history --client-id 7
//
// See --help for all available options.
package main

// main is the entry point for doctaxon.
func main() {
	Execute()
}
