package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// ViewRenderer presents a view descriptor on an outbound channel. The engine
// treats rendering as fire-and-forget: failures are the adapter's to retry or
// report, and never roll back a persisted transition.
type ViewRenderer interface {
	Render(ctx context.Context, channelKey string, view domain.ViewNode) error
}

// RendererFunc adapts a plain function to the ViewRenderer interface.
type RendererFunc func(ctx context.Context, channelKey string, view domain.ViewNode) error

// Render implements ViewRenderer.
func (f RendererFunc) Render(ctx context.Context, channelKey string, view domain.ViewNode) error {
	return f(ctx, channelKey, view)
}
