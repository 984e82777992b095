// Package export publishes a content tree as a static site.
//
// Publish runs a fixed sequence of stages against a fresh page registry:
//
//	teardown → setup → copy_assets → copy_public → write_index →
//	write_pages → write_sitemap → write_readme → cleanup → check_links
//
// Process runs the subset the preview server needs before it renders pages
// on demand. Every run gets a build id, is timed per stage through the
// metrics recorder, and is appended to the publish history when one is
// configured.
package export
