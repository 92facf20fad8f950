// Package middleware stores the global middleware of the HTTP server.
//
// These intercept requests to handle cross-cutting concerns such as
// request ids, request logging, tracing, metrics, CORS and panic recovery,
// and define the global error handler.
package middleware
