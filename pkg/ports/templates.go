package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/template"
)

// TemplateSource defines how the engine resolves conversation templates.
// Implementations may load from memory, files, or a remote catalog; the
// returned template is an immutable snapshot.
type TemplateSource interface {
	// FindTemplateByID resolves a template.
	// Returns domain.ErrTemplateNotFound when the id is unknown.
	FindTemplateByID(ctx context.Context, id string) (*template.Template, error)
}
