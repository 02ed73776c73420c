package server

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const (
	MaxSecretSize = 64
	MinSecretSize = 32
)

// Config is a configuration for a recognition server. It is loaded from an
// optional TOML file and then overridden by flags in cmd/voxserver.
type Config struct {
	// ListenAddr is the address the server binds to, e.g. ":8080".
	ListenAddr string `toml:"listen_addr"`

	// GrammarFile is the path to the grammar text Load reads at startup and
	// on every admin reload.
	GrammarFile string `toml:"grammar_file"`

	// SlotCachePath is the SQLite file server/slots caches loaded slot
	// values in. Empty means in-memory only (no persistence across
	// restarts).
	SlotCachePath string `toml:"slot_cache_path"`

	// AdminPasswordHash is a bcrypt hash of the password required to mint an
	// admin bearer token via POST /admin/login.
	AdminPasswordHash string `toml:"admin_password_hash"`

	// TokenSecret is the secret used for signing admin JWTs. It is decoded
	// from the config file's plain-text token_secret string, not hex or
	// base64 — TOML has no native byte-string type.
	TokenSecret    []byte `toml:"-"`
	TokenSecretStr string `toml:"token_secret"`

	// UnauthDelayMillis is the amount of additional time to wait before
	// responding to an unauthorized or unauthenticated admin request.
	UnauthDelayMillis int `toml:"unauth_delay_millis"`

	// Weighted enables intent weight balancing on compile, per
	// grammar.Options passed to voxgraph.Load.
	Weighted bool `toml:"weighted"`
}

// LoadFile decodes a TOML config file at path into a new Config. A missing
// file is not an error; FillDefaults should still be called on the result.
func LoadFile(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return cfg, fmt.Errorf("decode config file: %w", err)
	}
	if cfg.TokenSecretStr != "" {
		cfg.TokenSecret = []byte(cfg.TokenSecretStr)
	}
	return cfg, nil
}

// FillDefaults returns a new Config identical to cfg but with unset values
// set to their defaults.
func (cfg Config) FillDefaults() Config {
	newCfg := cfg

	if newCfg.ListenAddr == "" {
		newCfg.ListenAddr = ":8080"
	}
	if newCfg.TokenSecret == nil {
		newCfg.TokenSecret = []byte("DEFAULT_TOKEN_SECRET-DO_NOT_USE_IN_PROD!")
	}
	if newCfg.UnauthDelayMillis == 0 {
		newCfg.UnauthDelayMillis = 1000
	}

	return newCfg
}

// Validate returns an error if the Config has invalid field values set.
// Call it on the return value of FillDefaults.
func (cfg Config) Validate() error {
	if cfg.GrammarFile == "" {
		return fmt.Errorf("grammar_file: must be set to a path")
	}
	if len(cfg.TokenSecret) < MinSecretSize {
		return fmt.Errorf("token secret: must be at least %d bytes, but is %d", MinSecretSize, len(cfg.TokenSecret))
	}
	if len(cfg.TokenSecret) > MaxSecretSize {
		return fmt.Errorf("token secret: must be no more than %d bytes, but is %d", MaxSecretSize, len(cfg.TokenSecret))
	}
	if cfg.AdminPasswordHash == "" {
		return fmt.Errorf("admin_password_hash: must be set; admin endpoints would otherwise accept no password")
	}
	return nil
}
