// Package service holds the book business rules.
//
// Services receive validated payloads from handlers, call the repository
// and translate store outcomes (such as a missing book) into errs values
// the HTTP layer can serialize.
package service
