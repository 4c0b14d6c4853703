package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures process-level configuration. Everything is
// environment-driven so main stays lean and deployments stay declarative.
type Config struct {
	Addr string `env:"FUNDGATE_ADDR" envDefault:":8080"`

	// JWTSigningKey signs and validates caller session tokens.
	JWTSigningKey string `env:"FUNDGATE_JWT_SIGNING_KEY" envDefault:"dev-secret-change-in-production"`

	// OwnerAddress holds the platform owner role: administrative overrides
	// and milestone decisions check the actor against it.
	OwnerAddress string `env:"FUNDGATE_OWNER_ADDRESS" envDefault:"fundgate-owner"`

	// TreasuryAddress is the fallback routing target for donations when a
	// proposal carries no payout address.
	TreasuryAddress string `env:"FUNDGATE_TREASURY_ADDRESS" envDefault:"fundgate-treasury"`

	// ActivationThreshold is the quorum: votes needed to move a proposal
	// from Pending to Active.
	ActivationThreshold int `env:"FUNDGATE_ACTIVATION_THRESHOLD" envDefault:"20"`

	// DefaultVotingDuration applies when a create request names none.
	DefaultVotingDuration time.Duration `env:"FUNDGATE_VOTING_DURATION" envDefault:"168h"`

	// RejectExpired rejects Pending proposals past their voting deadline
	// lazily on the next mutating call. Off leaves them stale.
	RejectExpired bool `env:"FUNDGATE_REJECT_EXPIRED" envDefault:"true"`

	// AllowResubmission lets a creator resubmit a rejected milestone.
	AllowResubmission bool `env:"FUNDGATE_ALLOW_RESUBMISSION" envDefault:"true"`

	// TransferServiceURL points at the value-transfer collaborator. Empty
	// selects the in-process stub (development only).
	TransferServiceURL string `env:"FUNDGATE_TRANSFER_URL"`

	// PostgresDSN selects the postgres stores; empty selects in-memory.
	PostgresDSN string `env:"FUNDGATE_POSTGRES_DSN"`

	// KafkaBrokers enable the Kafka audit sink when non-empty.
	KafkaBrokers []string `env:"FUNDGATE_KAFKA_BROKERS" envSeparator:","`
	AuditTopic   string   `env:"FUNDGATE_AUDIT_TOPIC" envDefault:"fundgate.audit"`

	Redis RedisConfig `envPrefix:"FUNDGATE_REDIS_"`
}

// RedisConfig tunes the metadata cache client. An empty URL disables Redis.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.ActivationThreshold <= 0 {
		return Config{}, fmt.Errorf("activation threshold must be positive, got %d", cfg.ActivationThreshold)
	}
	if cfg.DefaultVotingDuration <= 0 {
		return Config{}, fmt.Errorf("voting duration must be positive, got %s", cfg.DefaultVotingDuration)
	}
	return cfg, nil
}
