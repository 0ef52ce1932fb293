package corsso

import (
	"errors"

	"github.com/holsatia/corsso/internal/metrics"
	"github.com/holsatia/corsso/password"
	"github.com/holsatia/corsso/session"
	"github.com/holsatia/corsso/token"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. Construction is allocation-only; no
// I/O happens until engine methods are called.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	directory Directory
	built     bool
}

// New returns a Builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the Redis client backing sessions and reset tokens.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithDirectory sets the user and commission store.
func (b *Builder) WithDirectory(directory Directory) *Builder {
	b.directory = directory
	return b
}

// Build validates the configuration and wiring and returns the Engine.
// A Builder can build at most once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.directory == nil {
		return nil, errors.New("directory required")
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(b.config.Password)
	if err != nil {
		return nil, err
	}

	var tokens *token.Manager
	if b.config.Token.Enabled {
		tokens, err = token.NewManager(token.Config{
			TTL:           b.config.Token.TTL,
			SigningMethod: b.config.Token.SigningMethod,
			PrivateKey:    b.config.Token.PrivateKey,
			PublicKey:     b.config.Token.PublicKey,
			Issuer:        b.config.Token.Issuer,
			Audience:      b.config.Token.Audience,
			Leeway:        b.config.Token.Leeway,
		})
		if err != nil {
			return nil, err
		}
	}

	var counters *metrics.Metrics
	if b.config.Metrics.Enabled {
		counters = metrics.New()
	}

	b.built = true
	return &Engine{
		config:    b.config,
		directory: b.directory,
		hasher:    hasher,
		sessions:  session.NewStore(b.redis, b.config.Session.RedisPrefix),
		resets:    newResetStore(b.redis, b.config.Reset.RedisPrefix),
		tokens:    tokens,
		metrics:   counters,
	}, nil
}
