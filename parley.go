package parley

import (
	"context"
	"log/slog"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/session"
	"github.com/aretw0/parley/pkg/template"
)

// Version is the library version, stamped into release builds.
var Version = "0.1.0"

// Engine is the high-level entry point for the Parley library. It bundles a
// template registry, a session store, and the orchestrator behind a
// simplified API; embedders needing finer control can wire pkg/session
// directly.
type Engine struct {
	registry *template.Registry
	store    ports.SessionStore
	renderer ports.ViewRenderer

	orchestrator *session.Orchestrator
	sessionOpts  []session.Option
	logger       *slog.Logger
	templateDir  string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithTemplateDir loads every template document from a directory at startup.
func WithTemplateDir(dir string) Option {
	return func(e *Engine) {
		e.templateDir = dir
	}
}

// WithTemplate registers a pre-built template.
func WithTemplate(t *template.Template) Option {
	return func(e *Engine) {
		_ = e.registry.Register(t)
	}
}

// WithStore injects a custom session store (default: in-memory).
func WithStore(store ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithRenderer injects the render port (default: discard).
func WithRenderer(r ports.ViewRenderer) Option {
	return func(e *Engine) {
		e.renderer = r
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithSessionOptions forwards options to the underlying orchestrator
// (distributed locker, metrics recorder, id generation).
func WithSessionOptions(opts ...session.Option) Option {
	return func(e *Engine) {
		e.sessionOpts = append(e.sessionOpts, opts...)
	}
}

// New creates an Engine with the given options.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		registry: template.NewRegistry(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.store == nil {
		e.store = memory.NewStore()
	}
	if e.renderer == nil {
		e.renderer = ports.RendererFunc(func(context.Context, string, domain.ViewNode) error {
			return nil
		})
	}
	if e.templateDir != "" {
		if _, err := e.registry.LoadDir(e.templateDir); err != nil {
			return nil, err
		}
	}

	sessionOpts := append([]session.Option{session.WithLogger(e.logger)}, e.sessionOpts...)
	e.orchestrator = session.New(e.registry, e.store, e.renderer, sessionOpts...)
	return e, nil
}

// Registry exposes the template registry for dynamic registration.
func (e *Engine) Registry() *template.Registry {
	return e.registry
}

// Orchestrator exposes the underlying use-case layer.
func (e *Engine) Orchestrator() *session.Orchestrator {
	return e.orchestrator
}

// Start begins (or resumes) a conversation for ownerKey.
func (e *Engine) Start(ctx context.Context, templateID, ownerKey, channelKey string) (*session.StartResult, error) {
	return e.orchestrator.Start(ctx, templateID, ownerKey, channelKey)
}

// ProcessInput feeds one normalized external event to the owner's session.
func (e *Engine) ProcessInput(ctx context.Context, ownerKey, event string, payload map[string]any) (*session.InputResult, error) {
	return e.orchestrator.ProcessInput(ctx, ownerKey, event, payload)
}

// Finish completes the owner's active session.
func (e *Engine) Finish(ctx context.Context, ownerKey string) (*domain.Conversation, error) {
	return e.orchestrator.Finish(ctx, ownerKey)
}

// Cancel abandons the owner's active session.
func (e *Engine) Cancel(ctx context.Context, ownerKey string) (*domain.Conversation, error) {
	return e.orchestrator.Cancel(ctx, ownerKey)
}
