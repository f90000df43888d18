package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/entity"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/template"
)

// Orchestrator is the use-case layer of the engine. It owns no business rules
// itself: templates and aggregates do, while the orchestrator sequences
// load -> mutate -> persist -> render as one synchronous logical unit per
// inbound event.
type Orchestrator struct {
	templates ports.TemplateSource
	store     ports.SessionStore
	renderer  ports.ViewRenderer

	locker  ports.DistributedLocker
	lockTTL time.Duration
	locks   *ownerLocks

	logger  *slog.Logger
	metrics Recorder
	newID   func() string
}

// Option configures the Orchestrator.
type Option func(*Orchestrator)

// WithLogger configures a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithLocker enables distributed locking on top of the in-process per-owner
// serialization, for deployments with multiple replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(o *Orchestrator) {
		o.locker = locker
	}
}

// WithLockTTL overrides the distributed lock TTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(o *Orchestrator) {
		o.lockTTL = ttl
	}
}

// WithRecorder wires a metrics recorder.
func WithRecorder(rec Recorder) Option {
	return func(o *Orchestrator) {
		o.metrics = rec
	}
}

// WithIDGenerator overrides session id generation (useful in tests).
func WithIDGenerator(gen func() string) Option {
	return func(o *Orchestrator) {
		o.newID = gen
	}
}

// New creates an Orchestrator over the given collaborators.
func New(templates ports.TemplateSource, store ports.SessionStore, renderer ports.ViewRenderer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		templates: templates,
		store:     store,
		renderer:  renderer,
		lockTTL:   defaultLockTTL,
		locks:     newOwnerLocks(),
		logger:    logging.NewNop(),
		metrics:   nopRecorder{},
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Store returns the underlying session store.
func (o *Orchestrator) Store() ports.SessionStore {
	return o.store
}

// StartResult reports the session produced (or resumed) by Start and the view
// rendered for it.
type StartResult struct {
	Conversation *domain.Conversation
	View         *domain.ViewNode
	Resumed      bool
}

// InputResult reports the outcome of ProcessInput. View is nil when no
// transition was applied.
type InputResult struct {
	domain.TransitionResult
	Conversation *domain.Conversation
	View         *domain.ViewNode
}

// Start begins a conversation for ownerKey from the given template. When the
// owner already has an active session, that session is returned unchanged and
// its current view is re-rendered instead of starting over.
func (o *Orchestrator) Start(ctx context.Context, templateID, ownerKey, channelKey string) (*StartResult, error) {
	tpl, err := o.templates.FindTemplateByID(ctx, templateID)
	if err != nil {
		return nil, err
	}

	var result *StartResult
	err = o.withOwnerLock(ctx, ownerKey, func(ctx context.Context) error {
		existing, err := o.store.FindActiveByOwner(ctx, ownerKey)
		if err == nil {
			view := deliverableView(tpl, existing.CurrentStateID)
			o.render(ctx, existing.ChannelKey, view)
			o.metrics.SessionResumed(existing.TemplateID)
			result = &StartResult{Conversation: existing, View: view, Resumed: true}
			return nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check for an active session: %w", err)
		}

		conv := domain.NewConversation(o.newID(), ownerKey, templateID, tpl.Table().InitialState())
		conv.ChannelKey = channelKey

		ent, err := tpl.NewEntity(nil)
		if err != nil {
			return fmt.Errorf("failed to materialize entity: %w", err)
		}
		if ent != nil {
			conv.AttachEntity(ent)
		}

		if err := o.store.Save(ctx, conv); err != nil {
			return fmt.Errorf("failed to persist new session: %w", err)
		}

		view := deliverableView(tpl, conv.CurrentStateID)
		o.render(ctx, channelKey, view)
		o.metrics.SessionStarted(templateID)

		o.logger.Info("conversation started",
			"session_id", conv.ID,
			"template_id", templateID,
			"owner_key", ownerKey,
		)

		result = &StartResult{Conversation: conv, View: view}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ProcessInput feeds one external event to the owner's active session. The
// session is persisted only when the state actually changed; an unmatched
// event is reported through the result and nothing is saved or rendered.
func (o *Orchestrator) ProcessInput(ctx context.Context, ownerKey, event string, payload map[string]any) (*InputResult, error) {
	var result *InputResult
	err := o.withOwnerLock(ctx, ownerKey, func(ctx context.Context) error {
		conv, tpl, err := o.resolve(ctx, ownerKey)
		if err != nil {
			return err
		}

		res, err := conv.ProcessInput(tpl.Table(), event, payload)
		if err != nil {
			var guardErr *entity.GuardError
			if errors.As(err, &guardErr) {
				o.metrics.GuardRejected(conv.TemplateID)
			}
			return err
		}

		if !res.Applied {
			o.metrics.TransitionNoOp(conv.TemplateID)
			o.logger.Debug("no transition for event",
				"session_id", conv.ID,
				"state", conv.CurrentStateID,
				"event", event,
			)
			result = &InputResult{TransitionResult: res, Conversation: conv}
			return nil
		}

		if err := o.store.Save(ctx, conv); err != nil {
			return fmt.Errorf("failed to persist session: %w", err)
		}

		view := deliverableView(tpl, conv.CurrentStateID)
		o.render(ctx, conv.ChannelKey, view)
		o.metrics.TransitionApplied(conv.TemplateID)

		result = &InputResult{TransitionResult: res, Conversation: conv, View: view}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Finish completes the owner's active session.
func (o *Orchestrator) Finish(ctx context.Context, ownerKey string) (*domain.Conversation, error) {
	return o.terminate(ctx, ownerKey, (*domain.Conversation).Finish)
}

// Cancel abandons the owner's active session.
func (o *Orchestrator) Cancel(ctx context.Context, ownerKey string) (*domain.Conversation, error) {
	return o.terminate(ctx, ownerKey, (*domain.Conversation).Cancel)
}

func (o *Orchestrator) terminate(ctx context.Context, ownerKey string, op func(*domain.Conversation) error) (*domain.Conversation, error) {
	var conv *domain.Conversation
	err := o.withOwnerLock(ctx, ownerKey, func(ctx context.Context) error {
		loaded, _, err := o.resolve(ctx, ownerKey)
		if err != nil {
			return err
		}
		if err := op(loaded); err != nil {
			return err
		}
		if err := o.store.Save(ctx, loaded); err != nil {
			return fmt.Errorf("failed to persist session: %w", err)
		}
		o.metrics.SessionTerminated(loaded.TemplateID, string(loaded.Status))
		o.logger.Info("conversation terminated",
			"session_id", loaded.ID,
			"status", loaded.Status,
		)
		conv = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// resolve loads the owner's active session together with its bound template,
// rehydrating the embedded entity when one is present.
func (o *Orchestrator) resolve(ctx context.Context, ownerKey string) (*domain.Conversation, *template.Template, error) {
	conv, err := o.store.FindActiveByOwner(ctx, ownerKey)
	if err != nil {
		return nil, nil, err
	}
	tpl, err := o.templates.FindTemplateByID(ctx, conv.TemplateID)
	if err != nil {
		return nil, nil, err
	}
	if err := tpl.Rehydrate(conv); err != nil {
		return nil, nil, fmt.Errorf("failed to rehydrate entity: %w", err)
	}
	return conv, tpl, nil
}

// render invokes the render port. Failures are logged and recorded, never
// propagated: the transition is already persisted and the adapter owns
// delivery retries.
func (o *Orchestrator) render(ctx context.Context, channelKey string, view *domain.ViewNode) {
	if view == nil {
		return
	}
	if err := o.renderer.Render(ctx, channelKey, *view); err != nil {
		o.metrics.RenderFailed(view.Component)
		o.logger.Warn("render failed",
			"channel_key", channelKey,
			"component", view.Component,
			"err", err,
		)
	}
}

// deliverableView resolves the view node for a state. Template binding
// guarantees coverage of reachable states, so nil only occurs for sessions
// bound to a since-edited template.
func deliverableView(tpl *template.Template, stateID string) *domain.ViewNode {
	return tpl.Views().Node(stateID)
}
