package middleware

import "net/http"

// Middleware is a function that wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain applies middleware in order: the first middleware is the outermost
// wrapper. Nil entries are skipped so optional layers can be listed inline.
func Chain(handler http.Handler, mw ...Middleware) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		if mw[i] == nil {
			continue
		}
		handler = mw[i](handler)
	}
	return handler
}

// When returns mw if cond holds and nil otherwise.
func When(cond bool, mw Middleware) Middleware {
	if !cond {
		return nil
	}
	return mw
}
