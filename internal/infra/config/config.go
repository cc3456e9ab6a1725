// internal/infra/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Store backends
const (
	BackendFirestore = "firestore"
	BackendMemory    = "memory"
)

// Config はアプリケーション全体の設定を保持します。
//
// 優先順位: 環境変数 > HANAMI_CONFIG の TOML ファイル > デフォルト値
type Config struct {
	Port string

	StoreBackend             string
	FirestoreProjectID       string
	FirestoreCredentialsFile string
	// 複合範囲クエリ（緯度 + 経度）を store 側で実行するか
	FirestoreMultiRange bool
	// Secret Manager のリソース名（projects/*/secrets/*/versions/*）。サービスアカウント JSON を格納
	CredentialsSecret string

	MediaBucket string

	SendGridAPIKey string
	SendGridFrom   string
	ReportTo       string

	OpTimeout         time.Duration
	FanoutLimit       int
	TreasureCacheSize int

	LogLevel string
	LogFile  string

	CORSOrigin   string
	AuthDisabled bool
}

// fileConfig is the TOML shape. 未指定の項目は nil のまま（上書きしない）。
type fileConfig struct {
	Port                     *string `toml:"port"`
	StoreBackend             *string `toml:"store_backend"`
	FirestoreProjectID       *string `toml:"firestore_project_id"`
	FirestoreCredentialsFile *string `toml:"firestore_credentials_file"`
	FirestoreMultiRange      *bool   `toml:"firestore_multi_range"`
	CredentialsSecret        *string `toml:"credentials_secret"`
	MediaBucket              *string `toml:"media_bucket"`
	SendGridFrom             *string `toml:"sendgrid_from"`
	ReportTo                 *string `toml:"report_to"`
	OpTimeout                *string `toml:"op_timeout"`
	FanoutLimit              *int    `toml:"fanout_limit"`
	TreasureCacheSize        *int    `toml:"treasure_cache_size"`
	LogLevel                 *string `toml:"log_level"`
	LogFile                  *string `toml:"log_file"`
	CORSOrigin               *string `toml:"cors_origin"`
	AuthDisabled             *bool   `toml:"auth_disabled"`
}

var ErrInvalidConfig = errors.New("config: invalid")

// Load は環境変数（と任意の TOML ファイル）を読み込み Config を返します。
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom is Load with an injectable env lookup.
func LoadFrom(getenv func(string) string) (*Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(getenv("HANAMI_CONFIG")); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.overlayEnv(getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Port:                "8080",
		StoreBackend:        BackendFirestore,
		FirestoreMultiRange: true,
		OpTimeout:           15 * time.Second,
		FanoutLimit:         16,
		TreasureCacheSize:   512,
		LogLevel:            "info",
		CORSOrigin:          "*",
	}
}

func (c *Config) overlayFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	var fc fileConfig
	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(&fc); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	setStr(&c.Port, fc.Port)
	setStr(&c.StoreBackend, fc.StoreBackend)
	setStr(&c.FirestoreProjectID, fc.FirestoreProjectID)
	setStr(&c.FirestoreCredentialsFile, fc.FirestoreCredentialsFile)
	setStr(&c.CredentialsSecret, fc.CredentialsSecret)
	setStr(&c.MediaBucket, fc.MediaBucket)
	setStr(&c.SendGridFrom, fc.SendGridFrom)
	setStr(&c.ReportTo, fc.ReportTo)
	setStr(&c.LogLevel, fc.LogLevel)
	setStr(&c.LogFile, fc.LogFile)
	setStr(&c.CORSOrigin, fc.CORSOrigin)
	if fc.FirestoreMultiRange != nil {
		c.FirestoreMultiRange = *fc.FirestoreMultiRange
	}
	if fc.AuthDisabled != nil {
		c.AuthDisabled = *fc.AuthDisabled
	}
	if fc.FanoutLimit != nil {
		c.FanoutLimit = *fc.FanoutLimit
	}
	if fc.TreasureCacheSize != nil {
		c.TreasureCacheSize = *fc.TreasureCacheSize
	}
	if fc.OpTimeout != nil {
		d, err := time.ParseDuration(*fc.OpTimeout)
		if err != nil {
			return fmt.Errorf("%w: op_timeout: %v", ErrInvalidConfig, err)
		}
		c.OpTimeout = d
	}
	return nil
}

func (c *Config) overlayEnv(getenv func(string) string) error {
	// ベースとなる GCP プロジェクト ID
	defaultProject := getenvDefault(getenv, "GCP_PROJECT_ID", c.FirestoreProjectID)

	c.Port = getenvDefault(getenv, "PORT", c.Port)
	c.StoreBackend = strings.ToLower(getenvDefault(getenv, "STORE_BACKEND", c.StoreBackend))
	c.FirestoreProjectID = getenvDefault(getenv, "FIRESTORE_PROJECT_ID", defaultProject)
	c.FirestoreCredentialsFile = getenvDefault(getenv, "FIRESTORE_CREDENTIALS_FILE", c.FirestoreCredentialsFile)
	c.CredentialsSecret = getenvDefault(getenv, "CREDENTIALS_SECRET", c.CredentialsSecret)
	c.MediaBucket = getenvDefault(getenv, "MEDIA_BUCKET", c.MediaBucket)
	c.SendGridAPIKey = getenvDefault(getenv, "SENDGRID_API_KEY", c.SendGridAPIKey)
	c.SendGridFrom = getenvDefault(getenv, "SENDGRID_FROM", c.SendGridFrom)
	c.ReportTo = getenvDefault(getenv, "REPORT_TO", c.ReportTo)
	c.LogLevel = getenvDefault(getenv, "LOG_LEVEL", c.LogLevel)
	c.LogFile = getenvDefault(getenv, "LOG_FILE", c.LogFile)
	c.CORSOrigin = getenvDefault(getenv, "CORS_ORIGIN", c.CORSOrigin)

	var err error
	if c.FirestoreMultiRange, err = getenvBool(getenv, "FIRESTORE_MULTI_RANGE", c.FirestoreMultiRange); err != nil {
		return err
	}
	if c.AuthDisabled, err = getenvBool(getenv, "AUTH_DISABLED", c.AuthDisabled); err != nil {
		return err
	}
	if c.FanoutLimit, err = getenvInt(getenv, "FANOUT_LIMIT", c.FanoutLimit); err != nil {
		return err
	}
	if c.TreasureCacheSize, err = getenvInt(getenv, "TREASURE_CACHE_SIZE", c.TreasureCacheSize); err != nil {
		return err
	}
	if v := strings.TrimSpace(getenv("OP_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: OP_TIMEOUT: %v", ErrInvalidConfig, err)
		}
		c.OpTimeout = d
	}
	return nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendFirestore:
		if c.FirestoreProjectID == "" {
			return fmt.Errorf("%w: FIRESTORE_PROJECT_ID is required for the firestore backend", ErrInvalidConfig)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: unknown STORE_BACKEND %q", ErrInvalidConfig, c.StoreBackend)
	}
	if c.OpTimeout <= 0 {
		return fmt.Errorf("%w: OP_TIMEOUT must be positive", ErrInvalidConfig)
	}
	if c.FanoutLimit <= 0 {
		return fmt.Errorf("%w: FANOUT_LIMIT must be positive", ErrInvalidConfig)
	}
	if c.TreasureCacheSize < 0 {
		return fmt.Errorf("%w: TREASURE_CACHE_SIZE must not be negative", ErrInvalidConfig)
	}
	return nil
}

func getenvDefault(getenv func(string) string, key, def string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvBool(getenv func(string) string, key string, def bool) (bool, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	return b, nil
}

func getenvInt(getenv func(string) string, key string, def int) (int, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	return n, nil
}

func setStr(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
