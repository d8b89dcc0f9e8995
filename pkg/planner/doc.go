// Package planner turns a resolved post into download tasks.
//
// Planning applies the caller's index selection, the per-kind download
// toggles and the preferred image format, then names each file from the
// naming template and places it according to the folder layout. Paths
// are unique within a post: every multi-asset file carries its ordinal.
package planner
