// Package page resolves content directories into pages.
//
// A page is a directory holding one descriptor file (*.yml). Directory names
// may carry an ordering prefix ("2.team"), which is dropped from permalinks
// and orders children. Un-prefixed page directories are floating: reachable
// by permalink but left out of child listings. Subdirectories without a
// descriptor are asset buckets.
//
// A Registry owns the resolution cache for one generation run. It is not safe
// for concurrent use; callers build a fresh Registry (or Reset one) per run.
package page
