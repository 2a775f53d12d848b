// ABOUTME: Profile loading for the embedchat CLI harness
// ABOUTME: YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Profile describes a complete widget embedding for the CLI harness: the
// embed attributes a host page would supply, plus process-level concerns a
// browser provides implicitly (identity storage, logging).
type Profile struct {
	Widget  WidgetProfile  `yaml:"widget"`
	Store   StoreProfile   `yaml:"store"`
	API     APIProfile     `yaml:"api"`
	Logging LoggingProfile `yaml:"logging"`
}

// WidgetProfile holds the embed surface: the script URL the widget would be
// loaded from and the attribute map of the embedding tag.
type WidgetProfile struct {
	ScriptURL  string            `yaml:"script_url"`
	Attributes map[string]string `yaml:"attributes"`
}

// StoreProfile selects the identity store driver
type StoreProfile struct {
	Driver    string `yaml:"driver"` // memory, sqlite, redis
	Path      string `yaml:"path"`   // sqlite database path
	RedisAddr string `yaml:"redis_addr"`
}

// APIProfile holds backend client configuration
type APIProfile struct {
	Timeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TimeoutRaw string `yaml:"timeout"`
}

// LoggingProfile holds logging configuration
type LoggingProfile struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadProfile reads a profile file from the given path and returns a parsed
// Profile. Environment variables in the format ${VAR_NAME} are expanded.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expanded := expandEnvVars(string(data))

	var p Profile
	if err := yaml.Unmarshal([]byte(expanded), &p); err != nil {
		return nil, fmt.Errorf("parsing profile file: %w", err)
	}

	if p.API.TimeoutRaw != "" {
		p.API.Timeout, err = time.ParseDuration(p.API.TimeoutRaw)
		if err != nil {
			return nil, fmt.Errorf("parsing api.timeout %q: %w", p.API.TimeoutRaw, err)
		}
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("validating profile: %w", err)
	}

	return &p, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables become empty strings.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that the profile can actually drive a widget instance.
// Returns an error describing the first validation failure encountered.
func (p *Profile) Validate() error {
	if p.Widget.ScriptURL == "" {
		return fmt.Errorf("widget.script_url is required")
	}
	if p.Widget.Attributes["widget-id"] == "" {
		return fmt.Errorf("widget.attributes.widget-id is required")
	}

	switch p.Store.Driver {
	case "", "memory":
		// in-memory needs nothing
	case "sqlite":
		if p.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite driver")
		}
	case "redis":
		if p.Store.RedisAddr == "" {
			return fmt.Errorf("store.redis_addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", p.Store.Driver)
	}

	return nil
}
