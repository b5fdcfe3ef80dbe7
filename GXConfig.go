package gxbuzzer

import (
	"fmt"
	"os"
	"strings"

	"github.com/Gurux/gxcommon-go"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of a buzzer session.
// Line parameters are fixed and can't be configured.
type Config struct {
	// Port is the serial device, for example /dev/ttyUSB0 or COM3.
	Port string `yaml:"port"`
	// Trace is a gxcommon trace level name. Empty disables tracing.
	Trace string `yaml:"trace"`
	// Language of the trace messages. Empty uses English.
	Language string `yaml:"language"`
	// ThreadedEvents delivers events from the decoder goroutine.
	// Otherwise they are queued until Drain is called.
	ThreadedEvents bool `yaml:"threaded_events"`
}

// DefaultConfig returns a config with polled events, no tracing and no port.
func DefaultConfig() *Config {
	return &Config{}
}

// ParseConfig parses YAML settings over the defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads and validates YAML settings from path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the settings can be used to open a session.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return ErrNoPort
	}
	if _, err := c.TraceLevel(); err != nil {
		return err
	}
	if _, err := c.LanguageTag(); err != nil {
		return err
	}
	return nil
}

// TraceLevel returns the parsed trace level.
func (c *Config) TraceLevel() (gxcommon.TraceLevel, error) {
	var level gxcommon.TraceLevel
	if c.Trace == "" {
		return level, nil
	}
	level, err := gxcommon.TraceLevelParse(c.Trace)
	if err != nil {
		return level, fmt.Errorf("invalid trace level %q: %w", c.Trace, err)
	}
	return level, nil
}

// LanguageTag returns the parsed language.
func (c *Config) LanguageTag() (language.Tag, error) {
	if c.Language == "" {
		return language.AmericanEnglish, nil
	}
	tag, err := language.Parse(c.Language)
	if err != nil {
		return language.Und, fmt.Errorf("invalid language %q: %w", c.Language, err)
	}
	return tag, nil
}

// DispatchMode returns the configured event dispatch mode.
func (c *Config) DispatchMode() DispatchMode {
	if c.ThreadedEvents {
		return DispatchThreaded
	}
	return DispatchPolled
}
