package routes

import (
	"fmt"
	"net/http"
)

// Group nests routes under a path prefix. Children inherit the accumulated
// prefix of their parents.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register adds every route in groups to mux and returns the registered
// patterns in registration order. A route without a method or handler panics,
// as does any pattern ServeMux rejects.
func Register(mux *http.ServeMux, groups ...Group) []string {
	var patterns []string
	for _, group := range groups {
		patterns = registerGroup(mux, "", group, patterns)
	}
	return patterns
}

func registerGroup(mux *http.ServeMux, parent string, group Group, patterns []string) []string {
	prefix := parent + group.Prefix
	for _, route := range group.Routes {
		pattern := route.under(prefix)
		if route.Method == "" || route.Handler == nil {
			panic(fmt.Sprintf("routes: incomplete route %q", pattern))
		}
		mux.HandleFunc(pattern, route.Handler)
		patterns = append(patterns, pattern)
	}
	for _, child := range group.Children {
		patterns = registerGroup(mux, prefix, child, patterns)
	}
	return patterns
}
