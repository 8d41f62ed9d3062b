// ABOUTME: Summary composition against an injected text generator
// ABOUTME: Fails fast when no generator is configured and passes remote errors through
package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/onsite/models"
)

// Generator produces long-form text from a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Composer turns a visit into a generated summary.
type Composer struct {
	Generator Generator
}

// Configured reports whether a generator is available.
func (c Composer) Configured() bool {
	return c.Generator != nil
}

// Compose builds the request and calls the generator. It never touches the visit.
func (c Composer) Compose(ctx context.Context, v *models.Visit) (string, error) {
	if c.Generator == nil {
		return "", fmt.Errorf("%w: no generation provider configured", models.ErrGenerationUnavailable)
	}

	text, err := c.Generator.Generate(ctx, Build(v))
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty response", models.ErrGenerationUnavailable)
	}
	return text, nil
}
