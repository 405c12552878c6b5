// Package config loads the proxy's configuration from environment
// variables with sensible defaults, following the 12-Factor App
// methodology.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	ListenAddr string `env:"NXRM_TWO_PORTAL_LISTEN_ADDR" envDefault:"0.0.0.0:8081"`

	PortalCentralURL       string `env:"NXRM_TWO_PORTAL_CENTRAL_URL,required"`
	PortalJWTPublicKeyPath string `env:"NXRM_TWO_PORTAL_JWT_PUBLIC_KEY_PATH"`

	BundleRoot      string `env:"NXRM_TWO_PORTAL_BUNDLE_ROOT" envDefault:"./data/bundles"`
	MaxFileBytes    int64  `env:"NXRM_TWO_PORTAL_MAX_FILE_BYTES" envDefault:"268435456"`
	MaxSessionBytes int64  `env:"NXRM_TWO_PORTAL_MAX_SESSION_BYTES" envDefault:"4294967296"`

	InactivityTimeout time.Duration `env:"NXRM_TWO_PORTAL_INACTIVITY_TIMEOUT" envDefault:"60m"`
	RetentionWindow   time.Duration `env:"NXRM_TWO_PORTAL_RETENTION_WINDOW" envDefault:"24h"`
	SweepInterval     time.Duration `env:"NXRM_TWO_PORTAL_SWEEP_INTERVAL" envDefault:"1m"`

	MaxConcurrentUploads int           `env:"NXRM_TWO_PORTAL_MAX_CONCURRENT_UPLOADS" envDefault:"4"`
	HTTPTimeout          time.Duration `env:"NXRM_TWO_PORTAL_HTTP_TIMEOUT" envDefault:"30s"`

	LogFilter       string `env:"NXRM_TWO_PORTAL_LOG_FILTER" envDefault:"info"`
	FingerprintSalt string `env:"NXRM_TWO_PORTAL_FINGERPRINT_SALT,required"`
	TraceBodyCap    int    `env:"NXRM_TWO_PORTAL_TRACE_BODY_CAP" envDefault:"4096"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing environment variables: %w", err)
	}
	return &cfg, nil
}
