package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Sentinel errors for configuration loading.
var (
	// ErrConfigFileMissing is returned when the given path does not exist.
	ErrConfigFileMissing = errors.New("configuration file not found")

	// ErrConfigMalformed is returned when the configuration file cannot be parsed.
	ErrConfigMalformed = errors.New("configuration file malformed")
)

// DefaultConfigPath is the default location for the pipeline configuration file.
const DefaultConfigPath = "varpipe.yaml"

// ConfigPathEnvVar is the environment variable holding a custom config path.
const ConfigPathEnvVar = "VARPIPE_CONFIG_PATH"

// Configuration is a flat, dotted-key settings store, mirroring the
// key/value shape recognized by the pipeline (output_dir, source_tree,
// analysis.components.log, variability.provider.timeout, ...).
//
// Values are stored as strings and parsed on read; a missing key falls
// back to whatever default the caller supplies.
type Configuration struct {
	values map[string]string
}

// New creates an empty Configuration seeded with the given values.
func New(values map[string]string) *Configuration {
	if values == nil {
		values = make(map[string]string)
	}

	return &Configuration{values: values}
}

// Load reads a YAML configuration file into a Configuration.
//
// Behavior mirrors graceful-degradation conventions used elsewhere in this
// module: a missing file is reported as ErrConfigFileMissing rather than
// silently defaulting, since a pipeline run without any configuration is
// almost certainly a setup mistake (spec.md SetupError).
func Load(path string) (*Configuration, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-supplied, not attacker input
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrConfigFileMissing
		}

		return nil, err
	}

	values := make(map[string]string)
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &values); err != nil {
			return nil, errors.Join(ErrConfigMalformed, err)
		}
	}

	return New(values), nil
}

// LoadFromEnv loads the configuration file at the path named by
// ConfigPathEnvVar, falling back to DefaultConfigPath.
func LoadFromEnv() (*Configuration, error) {
	path := GetEnvStr(ConfigPathEnvVar, DefaultConfigPath)

	return Load(path)
}

// envKey derives the environment variable override name for a dotted
// configuration key, e.g. "variability.provider.timeout" becomes
// "VARPIPE_VARIABILITY_PROVIDER_TIMEOUT". An env var set under this name
// takes precedence over both the configuration file and the caller's
// default, mirroring the reference's env-var-overrides-file convention.
func envKey(key string) string {
	return "VARPIPE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// rawValue returns the value key holds in the configuration file, without
// applying any environment override.
func (c *Configuration) rawValue(key string) (string, bool) {
	if c == nil {
		return "", false
	}

	v, ok := c.values[key]
	if !ok || v == "" {
		return "", false
	}

	return v, true
}

// GetString returns key's value, preferring an environment variable
// override, then the configuration file, then defaultValue.
func (c *Configuration) GetString(key, defaultValue string) string {
	fileValue := defaultValue
	if v, ok := c.rawValue(key); ok {
		fileValue = v
	}

	return GetEnvStr(envKey(key), fileValue)
}

// GetInt parses key's value as an int, preferring an environment variable
// override, then the configuration file, then defaultValue.
func (c *Configuration) GetInt(key string, defaultValue int) int {
	fileValue := defaultValue

	if v, ok := c.rawValue(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			fileValue = n
		}
	}

	return GetEnvInt(envKey(key), fileValue)
}

// GetBool parses key's value as a bool, preferring an environment variable
// override, then the configuration file, then defaultValue.
func (c *Configuration) GetBool(key string, defaultValue bool) bool {
	fileValue := defaultValue

	if v, ok := c.rawValue(key); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes":
			fileValue = true
		case "false", "0", "no":
			fileValue = false
		}
	}

	return GetEnvBool(envKey(key), fileValue)
}

// GetDuration parses key's value as a time.Duration, interpreting a bare
// integer as milliseconds (matching *.provider.timeout's unit), preferring
// an environment variable override, then the configuration file, then
// defaultValue.
func (c *Configuration) GetDuration(key string, defaultValue time.Duration) time.Duration {
	fileValue := defaultValue

	if v, ok := c.rawValue(key); ok {
		if ms, err := strconv.Atoi(v); err == nil {
			fileValue = time.Duration(ms) * time.Millisecond
		} else if d, err := time.ParseDuration(v); err == nil {
			fileValue = d
		}
	}

	return GetEnvDuration(envKey(key), fileValue)
}

// GetStringSet parses a comma-separated value for key into a set.
func (c *Configuration) GetStringSet(key string) map[string]bool {
	set := make(map[string]bool)

	for _, name := range ParseCommaSeparatedList(c.GetString(key, "")) {
		set[name] = true
	}

	return set
}

// GetStringSlice parses a comma-separated value for key into an ordered slice.
func (c *Configuration) GetStringSlice(key string) []string {
	return ParseCommaSeparatedList(c.GetString(key, ""))
}

// LogLevel resolves the "log_level" key to a slog.Level, preferring an
// environment variable override, then the configuration file, then
// slog.LevelInfo.
func (c *Configuration) LogLevel() slog.Level {
	fileLevel := slog.LevelInfo

	if v, ok := c.rawValue("log_level"); ok {
		switch strings.ToUpper(v) {
		case "DEBUG":
			fileLevel = slog.LevelDebug
		case "ERROR":
			fileLevel = slog.LevelError
		case "WARN", "WARNING":
			fileLevel = slog.LevelWarn
		}
	}

	return GetEnvLogLevel(envKey("log_level"), fileLevel)
}
