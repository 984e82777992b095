package source

import (
	"strings"

	ferrors "git.home.luguber.info/inful/sitetree/internal/foundation/errors"
)

// classify translates go-git failures into classified errors by message.
func classify(err error, op, url string) error {
	if _, ok := ferrors.AsClassified(err); ok {
		return err
	}
	l := strings.ToLower(err.Error())
	category, retryable := ferrors.CategoryGit, false
	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "authorization") || strings.Contains(l, "invalid credentials"):
		category = ferrors.CategoryConfig
	case strings.Contains(l, "repository not found") || strings.Contains(l, "does not exist"):
		category = ferrors.CategoryNotFound
	case strings.Contains(l, "timeout") || strings.Contains(l, "connection reset") ||
		strings.Contains(l, "remote hung up") || strings.Contains(l, "no route to host"):
		category, retryable = ferrors.CategoryNetwork, true
	}

	b := ferrors.NewError(category, "git "+op+" failed").
		WithCause(err).
		WithContext("op", op).
		WithContext("url", url)
	if retryable {
		b = b.Retryable()
	}
	return b.Build()
}
