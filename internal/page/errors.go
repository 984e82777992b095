package page

import (
	"errors"
	"fmt"

	ferrors "git.home.luguber.info/inful/sitetree/internal/foundation/errors"
)

var (
	// ErrPageNotFound reports that no descriptor matches a permalink.
	ErrPageNotFound = errors.New("page not found")
	// ErrContentFormat reports a descriptor that cannot be parsed.
	ErrContentFormat = errors.New("badly formatted content")
)

func notFound(permalink, root string) error {
	return ferrors.NotFoundError(fmt.Sprintf("page %q not found at %q", permalink, root)).
		WithCause(ErrPageNotFound).
		WithContext("permalink", permalink).
		Build()
}

func contentFormat(permalink, path string, cause error) error {
	return ferrors.ContentError(fmt.Sprintf("page %q has badly formatted content", permalink)).
		WithCause(fmt.Errorf("%w: %w", ErrContentFormat, cause)).
		WithContext("permalink", permalink).
		WithContext("path", path).
		Build()
}

func scanFailed(dir string, cause error) error {
	return ferrors.FileSystemError("scan content directory").
		WithCause(cause).
		WithContext("path", dir).
		Build()
}
