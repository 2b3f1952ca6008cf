package middleware

import "net/http"

// System collects HTTP middleware and wraps a handler with it. The first
// middleware added is the outermost, so it sees the request first.
type System interface {
	Use(mws ...func(http.Handler) http.Handler)
	Apply(handler http.Handler) http.Handler
}

type chain struct {
	mws []func(http.Handler) http.Handler
}

// New creates an empty middleware System.
func New() System {
	return &chain{}
}

func (c *chain) Use(mws ...func(http.Handler) http.Handler) {
	for _, mw := range mws {
		if mw != nil {
			c.mws = append(c.mws, mw)
		}
	}
}

func (c *chain) Apply(handler http.Handler) http.Handler {
	for i := len(c.mws) - 1; i >= 0; i-- {
		handler = c.mws[i](handler)
	}
	return handler
}
