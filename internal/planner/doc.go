// Package planner turns a derived name into a per-file Rename Plan: the
// final destination after collision resolution and whether a rename is
// needed at all.
package planner
