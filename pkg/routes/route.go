package routes

import "net/http"

// Route binds an HTTP method and a path pattern, relative to its group, to a
// handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// under returns the ServeMux pattern for the route beneath prefix.
func (r Route) under(prefix string) string {
	return r.Method + " " + prefix + r.Pattern
}
