// Package describe turns a short task summary into a fuller description using an
// external chat-completions model.
package describe

import (
	"context"
	"errors"
)

var (
	ErrNotConfigured = errors.New("description generator not configured")
	ErrEmptyResponse = errors.New("model returned no description")
)

type Generator interface {
	Generate(ctx context.Context, summary string) (string, error)
}

// Disabled is used when no API key is configured.
type Disabled struct{}

func (Disabled) Generate(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}
