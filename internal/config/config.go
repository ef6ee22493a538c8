// Package config loads runtime settings from defaults, an optional YAML file
// and the environment, in increasing precedence.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/ent0n29/meetingsnap/internal/provider"
)

const maxConfigFileSize = 1 << 20

// Config contains all runtime settings for the snapshot service.
type Config struct {
	BindAddr          string
	ShutdownTimeout   time.Duration
	MetricsNamespace  string
	LogLevel          string
	LogFormat         string
	TrustProxyHeaders bool

	Provider   string
	Timeout    time.Duration
	MaxChars   int
	RateLimit  int
	RateWindow time.Duration

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	DatabaseURL string
	SQLitePath  string

	// ConfigFile is the YAML file the settings were read from, if any.
	ConfigFile string
}

// Keys as they appear in the YAML file.
const (
	keyBindAddr          = "bind_addr"
	keyShutdownTimeout   = "shutdown_timeout"
	keyMetricsNamespace  = "metrics_namespace"
	keyLogLevel          = "log_level"
	keyLogFormat         = "log_format"
	keyTrustProxyHeaders = "trust_proxy_headers"
	keyProvider          = "provider"
	keyTimeoutMS         = "timeout_ms"
	keyMaxChars          = "max_chars"
	keyRateLimit         = "rate_limit"
	keyRateWindowS       = "rate_window_s"
	keyOpenAIAPIKey      = "openai_api_key"
	keyOpenAIBaseURL     = "openai_base_url"
	keyOpenAIModel       = "openai_model"
	keyDatabaseURL       = "database_url"
	keySQLitePath        = "sqlite_path"
)

// envKeys maps environment variables onto YAML keys.
var envKeys = map[string]string{
	"APP_BIND_ADDR":              keyBindAddr,
	"APP_SHUTDOWN_TIMEOUT":       keyShutdownTimeout,
	"APP_METRICS_NAMESPACE":      keyMetricsNamespace,
	"APP_LOG_LEVEL":              keyLogLevel,
	"APP_LOG_FORMAT":             keyLogFormat,
	"APP_TRUST_PROXY_HEADERS":    keyTrustProxyHeaders,
	"MEETING_SNAP_PROVIDER":      keyProvider,
	"MEETING_SNAP_TIMEOUT_MS":    keyTimeoutMS,
	"MEETING_SNAP_MAX_CHARS":     keyMaxChars,
	"MEETING_SNAP_RATE_LIMIT":    keyRateLimit,
	"MEETING_SNAP_RATE_WINDOW_S": keyRateWindowS,
	"MEETING_SNAP_OPENAI_MODEL":  keyOpenAIModel,
	"OPENAI_API_KEY":             keyOpenAIAPIKey,
	"OPENAI_BASE_URL":            keyOpenAIBaseURL,
	"DATABASE_URL":               keyDatabaseURL,
	"SQLITE_PATH":                keySQLitePath,
}

func defaults() map[string]any {
	return map[string]any{
		keyBindAddr:          ":8080",
		keyShutdownTimeout:   "15s",
		keyMetricsNamespace:  "meetingsnap",
		keyLogLevel:          "info",
		keyLogFormat:         "json",
		keyTrustProxyHeaders: "false",
		keyProvider:          "logic",
		keyTimeoutMS:         "10000",
		keyMaxChars:          "8000",
		keyRateLimit:         "30",
		keyRateWindowS:       "60",
		keyOpenAIBaseURL:     "https://api.openai.com",
		keyOpenAIModel:       "gpt-4o-mini",
	}
}

// Load reads MEETING_SNAP_CONFIG (when set) and the environment.
func Load() (Config, error) {
	return LoadFile(strings.TrimSpace(os.Getenv("MEETING_SNAP_CONFIG")))
}

// LoadFile reads settings from path (optional) and the environment, then
// validates them.
func LoadFile(path string) (Config, error) {
	k := koanf.New(".")
	for key, v := range defaults() {
		if err := k.Set(key, v); err != nil {
			return Config{}, fmt.Errorf("set default %s: %w", key, err)
		}
	}

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", func(name, value string) (string, interface{}) {
		key, ok := envKeys[name]
		if !ok || strings.TrimSpace(value) == "" {
			return "", nil
		}
		return key, strings.TrimSpace(value)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	cfg, err := fromKoanf(k)
	if err != nil {
		return Config{}, err
	}
	cfg.ConfigFile = path
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	content, err := io.ReadAll(io.LimitReader(f, maxConfigFileSize))
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return content, nil
}

func fromKoanf(k *koanf.Koanf) (Config, error) {
	cfg := Config{
		BindAddr:         strValue(k, keyBindAddr),
		MetricsNamespace: strValue(k, keyMetricsNamespace),
		LogLevel:         strings.ToLower(strValue(k, keyLogLevel)),
		LogFormat:        strings.ToLower(strValue(k, keyLogFormat)),
		Provider:         provider.Normalize(strValue(k, keyProvider)),
		OpenAIAPIKey:     strValue(k, keyOpenAIAPIKey),
		OpenAIBaseURL:    strValue(k, keyOpenAIBaseURL),
		OpenAIModel:      strValue(k, keyOpenAIModel),
		DatabaseURL:      strValue(k, keyDatabaseURL),
		SQLitePath:       strValue(k, keySQLitePath),
	}

	var err error
	if cfg.ShutdownTimeout, err = durationValue(k, keyShutdownTimeout); err != nil {
		return Config{}, err
	}
	if cfg.TrustProxyHeaders, err = boolValue(k, keyTrustProxyHeaders); err != nil {
		return Config{}, err
	}
	timeoutMS, err := intValue(k, keyTimeoutMS)
	if err != nil {
		return Config{}, err
	}
	cfg.Timeout = time.Duration(timeoutMS) * time.Millisecond
	if cfg.MaxChars, err = intValue(k, keyMaxChars); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit, err = intValue(k, keyRateLimit); err != nil {
		return Config{}, err
	}
	windowS, err := intValue(k, keyRateWindowS)
	if err != nil {
		return Config{}, err
	}
	cfg.RateWindow = time.Duration(windowS) * time.Second
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", keyTimeoutMS)
	}
	if c.MaxChars <= 0 {
		return fmt.Errorf("%s must be positive", keyMaxChars)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%s must be >= 0", keyRateLimit)
	}
	if c.RateWindow <= 0 {
		return fmt.Errorf("%s must be positive", keyRateWindowS)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%s must be positive", keyShutdownTimeout)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("%s must be json or console, got %q", keyLogFormat, c.LogFormat)
	}
	return nil
}

func strValue(k *koanf.Koanf, key string) string {
	v := k.Get(key)
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func durationValue(k *koanf.Koanf, key string) (time.Duration, error) {
	d, err := time.ParseDuration(strValue(k, key))
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intValue(k *koanf.Koanf, key string) (int, error) {
	n, err := strconv.Atoi(strValue(k, key))
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolValue(k *koanf.Koanf, key string) (bool, error) {
	switch strings.ToLower(strValue(k, key)) {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off", "":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
