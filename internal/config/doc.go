// Package config provides configuration structures and utilities for doctaxon.
// It defines the build options for clustering and summarization, the
// .doctaxon YAML file with per-client overrides, and the XDG directories
// used for the local page store.
package config
