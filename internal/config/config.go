// Package config holds the settings of the arith web server.
package config

import (
	"encoding/hex"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/zephyrtronium/arith"
	"github.com/zephyrtronium/arith/internal/logging"
)

// Config is the server configuration. The zero value is not valid; start from
// Default.
type Config struct {
	// Addr is the listen address of the HTTP server.
	Addr string `yaml:"addr"`
	// DBPath is the SQLite database file.
	DBPath string `yaml:"db"`
	// HashKey and BlockKey are hex-encoded securecookie keys. HashKey signs
	// session cookies and BlockKey encrypts them. Empty keys are generated at
	// startup, so sessions do not survive restarts.
	HashKey  string `yaml:"hash_key"`
	BlockKey string `yaml:"block_key"`
	// SecureCookies marks cookies HTTPS-only.
	SecureCookies bool `yaml:"secure_cookies"`
	// Prec is the precision in bits of evaluation results.
	Prec uint `yaml:"prec"`
	// CacheSize is the number of evaluation results to remember.
	CacheSize int `yaml:"cache_size"`
	// MaxExprLen is the longest expression a user may submit, in characters.
	MaxExprLen int `yaml:"max_expr_len"`
	// MaxDepth bounds parenthesis nesting in expressions.
	MaxDepth int `yaml:"max_depth"`

	Log logging.Config `yaml:"log"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Addr:       "localhost:5000",
		DBPath:     "users.db",
		Prec:       arith.DefaultPrec,
		CacheSize:  1024,
		MaxExprLen: 100,
		MaxDepth:   arith.DefaultMaxDepth,
		Log:        logging.Default(),
	}
}

// Load reads a YAML configuration file over the defaults. Fields absent from
// the file keep their default values. An empty path gives the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, nil
}

// Validate checks that the configuration can be used to start a server.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr must be set")
	}
	if c.DBPath == "" {
		return errors.New("db must be set")
	}
	if c.CacheSize < 0 {
		return errors.Errorf("cache_size must not be negative, got %d", c.CacheSize)
	}
	if c.MaxExprLen <= 0 {
		return errors.Errorf("max_expr_len must be positive, got %d", c.MaxExprLen)
	}
	if c.MaxDepth <= 0 {
		return errors.Errorf("max_depth must be positive, got %d", c.MaxDepth)
	}
	if _, _, err := c.Keys(); err != nil {
		return err
	}
	return c.Log.Validate()
}

// Keys decodes the cookie keys. A key that is not set decodes to nil.
func (c *Config) Keys() (hashKey, blockKey []byte, err error) {
	hashKey, err = decodeKey("hash_key", c.HashKey, 32, 64)
	if err != nil {
		return nil, nil, err
	}
	blockKey, err = decodeKey("block_key", c.BlockKey, 16, 24, 32)
	if err != nil {
		return nil, nil, err
	}
	return hashKey, blockKey, nil
}

func decodeKey(name, s string, sizes ...int) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", name)
	}
	for _, n := range sizes {
		if len(b) == n {
			return b, nil
		}
	}
	return nil, errors.Errorf("%s must decode to one of %v bytes, got %d", name, sizes, len(b))
}
