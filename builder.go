package authflow

import (
	"errors"
	"fmt"
	"log/slog"

	internalaudit "github.com/chatline/authflow/internal/audit"
	internalmetrics "github.com/chatline/authflow/internal/metrics"
	"github.com/chatline/authflow/identity"
	"github.com/chatline/authflow/session"
)

// Builder assembles a Client. A Builder can be used once.
type Builder struct {
	config    Config
	store     session.Store
	identity  IdentityService
	auditSink AuditSink
	logger    *slog.Logger

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration. Build validates it.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithSessionStore sets where sessions persist. Defaults to a MemoryStore.
func (b *Builder) WithSessionStore(s session.Store) *Builder {
	b.store = s
	return b
}

// WithIdentity overrides the identity service. Without it, Build creates an
// *identity.Client from Config.Identity.
func (b *Builder) WithIdentity(svc IdentityService) *Builder {
	b.identity = svc
	return b
}

// WithAuditSink sets the sink audit events are delivered to when
// Config.Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the logger for warnings. Defaults to slog.Default().
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithMetricsEnabled toggles Config.Metrics.Enabled.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the remote latency histogram. It has no
// effect unless metrics are enabled.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Client.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, w := range cfg.Lint() {
		if w.Severity == LintWarn {
			logger.Warn("authflow: config lint", "code", w.Code, "detail", w.Message)
		}
	}

	store := b.store
	if store == nil {
		store = session.NewMemoryStore()
	}

	svc := b.identity
	if svc == nil {
		ic, err := identity.New(cfg.Identity.clientConfig(), identity.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		svc = ic
	}

	c := &Client{
		config:   cfg,
		store:    store,
		identity: svc,
		metrics: internalmetrics.New(internalmetrics.Config{
			Enabled:                 cfg.Metrics.Enabled,
			EnableLatencyHistograms: cfg.Metrics.EnableLatencyHistograms,
		}),
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		logger: logger,
	}
	c.buildFlowDeps()

	b.built = true
	return c, nil
}
