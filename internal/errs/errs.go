// Package errs defines the error types returned to API clients.
//
// Every non-2xx response body has the HTTPError shape, with optional
// field-level entries (FieldError) for validation failures.
package errs
