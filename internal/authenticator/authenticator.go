// Package authenticator declares the middleware seam between the router
// and the session verifier, so tests can substitute the real JWT check.
package authenticator

import "net/http"

// Authenticator guards protected routes and injects the caller identity
// into the request context.
type Authenticator interface {
	Authenticate(h http.Handler) http.Handler
}
