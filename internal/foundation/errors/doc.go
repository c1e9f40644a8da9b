// Package errors provides the classified error primitives used across grdesk.
//
// A ClassifiedError carries a category, a severity and a retry strategy next
// to the message and optional cause, so that the CLI and HTTP surfaces can
// derive exit codes and status codes without string matching.
//
//	err := errors.StoreError("transition function failed").
//		WithContext("module_key", key).
//		WithCause(cause).
//		Build()
//
// Sentinels built from this package compare with errors.Is by category and
// message, so a sentinel enriched with context still matches the original.
package errors
