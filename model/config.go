package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	kmaps "github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"sigs.k8s.io/yaml"

	"github.com/shelfhq/shelf/pkg/utils"
)

const (
	DefaultAPIBaseURL = "http://localhost:5042"
	EnvPrefix         = "SHELF_"
)

type TokenStoreKind string

const (
	TokenStoreFile   TokenStoreKind = "file"
	TokenStoreSQLite TokenStoreKind = "sqlite"
	TokenStoreMemory TokenStoreKind = "memory"
)

func (k *TokenStoreKind) UnmarshalText(text []byte) error {
	switch v := TokenStoreKind(strings.ToLower(strings.TrimSpace(string(text)))); v {
	case "", TokenStoreFile, TokenStoreSQLite, TokenStoreMemory:
		*k = v
		return nil
	default:
		return fmt.Errorf("unknown token store %q", text)
	}
}

type IdempotencyFormat string

const (
	IdempotencyTimestamp IdempotencyFormat = "timestamp"
	IdempotencyUUID      IdempotencyFormat = "uuid"
)

func (f *IdempotencyFormat) UnmarshalText(text []byte) error {
	switch v := IdempotencyFormat(strings.ToLower(strings.TrimSpace(string(text)))); v {
	case "", IdempotencyTimestamp, IdempotencyUUID:
		*f = v
		return nil
	default:
		return fmt.Errorf("unknown idempotency key format %q", text)
	}
}

type Config struct {
	APIBaseURL        string            `koanf:"api_base_url" json:"api_base_url,omitempty"`
	Timeout           time.Duration     `koanf:"timeout" json:"timeout,omitempty"` // 0 keeps transport defaults
	TokenStore        TokenStoreKind    `koanf:"token_store" json:"token_store,omitempty"`
	TokenPath         string            `koanf:"token_path" json:"token_path,omitempty"`
	IdempotencyFormat IdempotencyFormat `koanf:"idempotency_format" json:"idempotency_format,omitempty"`

	Debug    bool   `koanf:"debug" json:"debug,omitempty"`
	LogLevel string `koanf:"log_level" json:"log_level,omitempty"`
	LogEnv   string `koanf:"log_env" json:"log_env,omitempty"` // dev or prod

	k        *koanf.Koanf `json:"-"`
	filePath string       `json:"-"`
}

// Read loads SHELF_* environment variables, then the YAML file at path when it
// exists, and fills defaults. Both SHELF_API_BASE_URL and SHELF_APIBASEURL
// address the api_base_url key.
func (c *Config) Read(path string) error {
	c.k = koanf.New(".")
	c.filePath = path

	err := c.k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return err
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			err = c.k.Load(file.Provider(path), new(utils.KubeYAML), koanf.WithMergeFunc(mergeDedup))
			if err != nil {
				return fmt.Errorf("load config %s: %w", path, err)
			}
		}
	}

	if err := c.k.UnmarshalWithConf("", c, koanfConf(c)); err != nil {
		return err
	}

	c.applyDefaults()
	return nil
}

func (c *Config) applyDefaults() {
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	if c.APIBaseURL == "" {
		c.APIBaseURL = DefaultAPIBaseURL
	}
	if c.TokenStore == "" {
		c.TokenStore = TokenStoreFile
	}
	if c.IdempotencyFormat == "" {
		c.IdempotencyFormat = IdempotencyTimestamp
	}
	if c.TokenPath == "" && c.TokenStore != TokenStoreMemory {
		c.TokenPath = DefaultTokenPath(c.TokenStore)
	}
	if c.LogLevel == "" {
		c.LogLevel = utils.IfOr(c.Debug, "debug", "warn")
	}
	if c.LogEnv == "" {
		c.LogEnv = "dev"
	}
}

// DefaultTokenPath places credentials under the user config directory.
func DefaultTokenPath(kind TokenStoreKind) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	name := utils.IfOr(kind == TokenStoreSQLite, "credentials.db", "credentials.yaml")
	return filepath.Join(dir, "shelf", name)
}

// Save writes the config back to the file it was read from.
func (c *Config) Save() error {
	if c.filePath == "" {
		return fmt.Errorf("config has no file path")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}
	return os.WriteFile(c.filePath, data, 0600)
}

func koanfConf(c any) koanf.UnmarshalConf {
	return koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				utils.TextUnmarshalerHookFunc()),
			Result:           c,
			WeaklyTypedInput: true,
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName) ||
					strings.EqualFold(mapKey, strings.ReplaceAll(fieldName, "_", ""))
			},
		},
	}
}

// mergeDedup lets snake_case file keys override the underscore-less keys the
// env provider produces for the same field.
func mergeDedup(src, dst map[string]any) error {
	for key := range src {
		if strings.IndexByte(key, '_') == -1 {
			continue
		}

		oldKey := strings.ReplaceAll(key, "_", "")
		if _, ok := dst[oldKey]; ok {
			src[oldKey] = src[key]
			delete(src, key)
		}
	}

	kmaps.Merge(src, dst)
	return nil
}
