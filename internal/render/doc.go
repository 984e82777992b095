// Package render turns pages into HTML using templates from a template
// directory.
//
// A page's descriptor basename names its template: "1.about/default.yml"
// renders with "<templates>/default.html". Templates use text/template and
// may call shared partials from "<templates>/partials/".
package render
