// Package routes organizes HTTP endpoints into mountable route groups.
package routes

import "net/http"

// Route binds an HTTP method and pattern to a handler function.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Group represents a collection of routes under a common URL prefix.
// Groups can contain child groups for hierarchical route organization.
type Group struct {
	Prefix      string
	Description string
	Routes      []Route
	Children    []Group
}

// Mount registers every route of each group on the mux, prefixing patterns
// with the group prefix. Child groups inherit the parent prefix.
func Mount(mux *http.ServeMux, groups ...Group) {
	for _, g := range groups {
		mount(mux, "", g)
	}
}

func mount(mux *http.ServeMux, prefix string, g Group) {
	base := prefix + g.Prefix
	for _, r := range g.Routes {
		mux.HandleFunc(r.Method+" "+base+r.Pattern, r.Handler)
	}
	for _, child := range g.Children {
		mount(mux, base, child)
	}
}
