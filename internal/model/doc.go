// Package model defines the core data structures used throughout doctaxon.
//
// This package contains the following main types:
//   - Page: An analyzed documentation page with embeddings and AI metadata
//   - Unit: The atomic item handed to clustering (one per page or section)
//   - Cluster: A group of related pages produced by one clustering run
//   - Category: A parent grouping of clusters
//   - Taxonomy: The exported tree of root topics and modules
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The embedding, cluster, taxonomy and report packages all need
// these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for export and
// database storage.
package model
