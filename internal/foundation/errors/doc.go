// Package errors provides the classified error primitives used across sitetree.
//
// Errors carry a category (not_found, content, render, ...), a severity, a retry
// strategy and structured context. Packages keep their own sentinel errors and
// wrap them in a ClassifiedError so callers can match with errors.Is while the
// CLI and HTTP adapters pick exit codes and status codes from the category.
//
// Example usage:
//
//	err := errors.WrapError(ErrPageNotFound, errors.CategoryNotFound, "page not found").
//		WithContext("permalink", permalink).
//		Build()
package errors
