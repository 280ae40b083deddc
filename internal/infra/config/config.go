package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"
	"gopkg.in/yaml.v3"

	"yanki-connect/internal/domain"
)

// Config is the top-level configuration of the yanki CLI.
type Config struct {
	Anki      AnkiConfig      `yaml:"anki"`
	Launch    LaunchConfig    `yaml:"launch"`
	Transport TransportConfig `yaml:"transport"`
	Breaker   BreakerConfig   `yaml:"breaker"`
	Logger    LoggerConfig    `yaml:"logger"`
	Tracer    TracerConfig    `yaml:"tracer"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// AnkiConfig describes how to reach the AnkiConnect service.
type AnkiConfig struct {
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	Version       int           `yaml:"version"`
	Key           string        `yaml:"key,omitempty"` // may be "enc:..."
	AutoLaunch    string        `yaml:"auto_launch"`   // "never", "on-demand", "immediately"
	RetryDelay    time.Duration `yaml:"retry_delay"`
	NotReadyError string        `yaml:"not_ready_error"`
}

// LaunchConfig holds the desktop app launch budget.
type LaunchConfig struct {
	AppPath    string        `yaml:"app_path"`
	Cooldown   time.Duration `yaml:"cooldown"`
	SessionCap int           `yaml:"session_cap"`
}

// TransportConfig holds HTTP transport timeouts and pooling.
type TransportConfig struct {
	ConnTimeout time.Duration `yaml:"conn_timeout"`
	RespTimeout time.Duration `yaml:"resp_timeout"`
	Pool        PoolConfig    `yaml:"pool"`
}

// PoolConfig holds HTTP connection pool settings.
type PoolConfig struct {
	MaxIdleConns        int           `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `yaml:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout"`
}

// BreakerConfig configures the optional circuit breaker around the transport.
type BreakerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
	Interval    time.Duration `yaml:"interval"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
}

// SchedulerConfig holds recurring action settings.
type SchedulerConfig struct {
	Enabled bool                  `yaml:"enabled"`
	Tasks   []ScheduledTaskConfig `yaml:"tasks"`
}

// ScheduledTaskConfig defines a single scheduled action.
type ScheduledTaskConfig struct {
	Name     string         `yaml:"name"`
	Schedule string         `yaml:"schedule"` // cron expression or duration string
	Action   string         `yaml:"action"`   // AnkiConnect action name, e.g. "sync"
	Params   map[string]any `yaml:"params,omitempty"`
	OneShot  bool           `yaml:"one_shot,omitempty"`
}

// DefaultPath returns ~/.config/yanki/config.yaml, or ./config.yaml when the
// home directory cannot be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "yanki", "config.yaml")
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Anki: AnkiConfig{
			Host:          "http://127.0.0.1",
			Port:          8765,
			Version:       6,
			AutoLaunch:    string(domain.AutoLaunchNever),
			RetryDelay:    500 * time.Millisecond,
			NotReadyError: "collection is not available",
		},
		Launch: LaunchConfig{
			AppPath:    "/Applications/Anki.app",
			Cooldown:   5 * time.Second,
			SessionCap: 100,
		},
		Transport: TransportConfig{
			ConnTimeout: 5 * time.Second,
			RespTimeout: 60 * time.Second,
		},
		Breaker: BreakerConfig{
			Enabled:     false,
			MaxFailures: 5,
			Timeout:     30 * time.Second,
			Interval:    60 * time.Second,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "noop",
		},
	}
}

// Load reads a YAML config file, applies env var overrides, and decrypts secrets.
// A missing file is not an error: defaults plus env overrides are used.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return finish(cfg)
		}
		return nil, fmt.Errorf("%w: read config: %v", domain.ErrConfigLoad, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	if err := validatePermissions(absPath); err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse config: %v", domain.ErrConfigLoad, err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	ApplyEnvOverrides(cfg)

	if passphrase := os.Getenv("YANKI_CONFIG_KEY"); passphrase != "" {
		if err := decryptSecrets(cfg, passphrase); err != nil {
			return nil, fmt.Errorf("decrypt secrets: %w", err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides maps YANKI_* env vars to config fields.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("YANKI_HOST"); v != "" {
		cfg.Anki.Host = v
	}
	if v := os.Getenv("YANKI_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Anki.Port = n
		}
	}
	if v := os.Getenv("YANKI_KEY"); v != "" {
		cfg.Anki.Key = v
	}
	if v := os.Getenv("YANKI_AUTO_LAUNCH"); v != "" {
		cfg.Anki.AutoLaunch = v
	}
	if v := os.Getenv("YANKI_RETRY_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Anki.RetryDelay = d
		}
	}
	if v := os.Getenv("YANKI_APP_PATH"); v != "" {
		cfg.Launch.AppPath = v
	}
	if v := os.Getenv("YANKI_BREAKER_ENABLED"); v != "" {
		cfg.Breaker.Enabled = v == "true"
	}
	if v := os.Getenv("YANKI_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("YANKI_LOGGER_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("YANKI_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("YANKI_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
}

// decryptSecrets finds "enc:..." values and decrypts them in place.
func decryptSecrets(cfg *Config, passphrase string) error {
	if strings.HasPrefix(cfg.Anki.Key, "enc:") {
		decrypted, err := DecryptValue(strings.TrimPrefix(cfg.Anki.Key, "enc:"), passphrase)
		if err != nil {
			return fmt.Errorf("anki key: %w", err)
		}
		cfg.Anki.Key = decrypted
	}
	return nil
}

// EncryptValue encrypts a plaintext value with AES-256-GCM using a passphrase.
func EncryptValue(plaintext, passphrase string) (string, error) {
	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	// Format: hex(salt) + ":" + hex(nonce+ciphertext)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(ciphertext), nil
}

// DecryptValue decrypts an AES-256-GCM encrypted value.
func DecryptValue(encrypted, passphrase string) (string, error) {
	parts := strings.SplitN(encrypted, ":", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid encrypted format")
	}

	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("decode salt: %w", err)
	}
	data, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plaintext), nil
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}

// deriveKey uses Argon2id to derive a 32-byte key from passphrase + salt.
func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, 1, 64*1024, 4, 32)
}

// validatePermissions checks the config file is not writable by others.
// The file may hold the AnkiConnect key.
func validatePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}
	mode := info.Mode().Perm()
	if mode&0o022 != 0 {
		return fmt.Errorf("config file %s has insecure permissions %o (want 0600 or 0644)", path, mode)
	}
	return nil
}
