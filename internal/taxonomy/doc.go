// Package taxonomy assembles clusters, summaries and categories into the
// exported taxonomy tree.
//
// The tree has root topics (parent categories) holding modules
// (clusters), and each module lists its pages in reading order. Topic and
// taxonomy statistics are computed here so exporters only format them.
package taxonomy
