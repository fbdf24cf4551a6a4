package authkit

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/edusuite/authkit/jwt"
	"github.com/edusuite/authkit/password"
)

// Builder assembles an [Engine]. Construction is allocation-only until
// Build, which validates the configuration and wires the collaborators.
type Builder struct {
	config     Config
	users      UserStore
	notifier   NotificationSender
	challenges ChallengeStore
	auditSink  AuditSink
	redis      *redis.Client

	built bool
}

// New returns a Builder loaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithUserStore sets the persistence collaborator. Required.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.users = store
	return b
}

// WithNotifier sets the 2FA code delivery collaborator. Required when
// any account has 2FA enabled.
func (b *Builder) WithNotifier(sender NotificationSender) *Builder {
	b.notifier = sender
	return b
}

// WithChallengeStore overrides the default in-memory challenge store.
func (b *Builder) WithChallengeStore(store ChallengeStore) *Builder {
	b.challenges = store
	return b
}

// WithRedis switches the challenge store to a Redis-backed one so
// multiple instances share pending challenges.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithAuditSink sets the destination for audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// Build validates the configuration and returns a ready Engine. A
// builder can only be used once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.users == nil {
		return nil, errors.New("user store required")
	}

	jwtManager, err := jwt.NewManager(jwt.Config{
		Secret:     cfg.JWT.Secret,
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
		Issuer:     cfg.JWT.Issuer,
		Leeway:     cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(cfg.Password)
	if err != nil {
		return nil, err
	}

	challenges := b.challenges
	if challenges == nil {
		if b.redis != nil {
			challenges = NewRedisChallengeStore(b.redis, cfg.Challenge)
		} else {
			challenges = NewMemoryChallengeStore(cfg.Challenge)
		}
	}

	b.built = true
	return &Engine{
		config:     cfg,
		jwtManager: jwtManager,
		hasher:     hasher,
		users:      b.users,
		notifier:   b.notifier,
		challenges: challenges,
		audit:      newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:    NewMetrics(cfg.Metrics),
	}, nil
}
