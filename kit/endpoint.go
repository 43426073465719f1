// Package kit holds the transport-agnostic plumbing shared by the HTTP and
// MCP surfaces: the Endpoint abstraction, middleware chaining, and typed
// context accessors for request-scoped identity.
package kit

import "context"

// Endpoint is one unit of work, independent of the transport that invoked
// it. HTTP handlers and MCP tools both decode into an Endpoint call.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behaviour.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares so the first argument is the outermost wrapper.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
