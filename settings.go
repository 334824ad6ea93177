package mipblur

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// MaxBlurLevel is the largest accepted blur strength.
const MaxBlurLevel = 50

// PassEvent is the point in the host pipeline where a pass runs. Passes run
// in ascending event order.
type PassEvent uint8

const (
	BeforeRenderingOpaques        PassEvent = iota // before opaque geometry
	AfterRenderingOpaques                          // after opaque geometry
	BeforeRenderingTransparents                    // before transparent geometry
	AfterRenderingTransparents                     // after transparent geometry
	BeforeRenderingPostProcessing                  // before post-processing (default)
	AfterRenderingPostProcessing                   // after post-processing
	passEventCount
)

var passEventNames = [passEventCount]string{
	"BeforeRenderingOpaques",
	"AfterRenderingOpaques",
	"BeforeRenderingTransparents",
	"AfterRenderingTransparents",
	"BeforeRenderingPostProcessing",
	"AfterRenderingPostProcessing",
}

func (e PassEvent) String() string {
	if e < passEventCount {
		return passEventNames[e]
	}
	return fmt.Sprintf("PassEvent(%d)", uint8(e))
}

// Valid reports whether e is a known event.
func (e PassEvent) Valid() bool {
	return e < passEventCount
}

// ParsePassEvent returns the event with the given name (case-insensitive).
func ParsePassEvent(name string) (PassEvent, error) {
	for i, n := range passEventNames {
		if strings.EqualFold(n, name) {
			return PassEvent(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidEvent, name)
}

// MarshalText implements encoding.TextMarshaler.
func (e PassEvent) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidEvent, uint8(e))
	}
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *PassEvent) UnmarshalText(b []byte) error {
	v, err := ParsePassEvent(string(b))
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// UnmarshalYAML decodes an event by name.
func (e *PassEvent) UnmarshalYAML(n *yaml.Node) error {
	return e.UnmarshalText([]byte(n.Value))
}

// MarshalYAML encodes an event by name.
func (e PassEvent) MarshalYAML() (any, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidEvent, uint8(e))
	}
	return e.String(), nil
}

// Settings are the tunables of a blur pass.
type Settings struct {
	// PassTag labels the pass in logs.
	PassTag string `yaml:"pass_tag" toml:"pass_tag"`
	// Event is the pipeline insertion point.
	Event PassEvent `yaml:"event" toml:"event"`
	// BlurLevel is the blur strength, clamped to [0, MaxBlurLevel].
	BlurLevel int `yaml:"blur_level" toml:"blur_level"`
	// Debug turns call-order violations into panics.
	Debug bool `yaml:"debug" toml:"debug"`
	// Material is the filter drawn at every level. Required.
	Material Material `yaml:"-" toml:"-"`
}

// DefaultSettings returns the settings a new pass starts from.
func DefaultSettings() Settings {
	return Settings{
		PassTag:   "Mipmap Blur",
		Event:     BeforeRenderingPostProcessing,
		BlurLevel: 25,
	}
}

// Validate reports configuration errors. It does not modify s.
func (s Settings) Validate() error {
	if s.Material == nil {
		return ErrNoMaterial
	}
	if !s.Event.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidEvent, uint8(s.Event))
	}
	return nil
}

// normalized returns s with the blur level clamped and an empty tag
// replaced by the default.
func (s Settings) normalized() Settings {
	s.BlurLevel = clampBlurLevel(s.BlurLevel)
	if s.PassTag == "" {
		s.PassTag = DefaultSettings().PassTag
	}
	return s
}

func clampBlurLevel(v int) int {
	return min(max(v, 0), MaxBlurLevel)
}

// ParseSettingsYAML decodes YAML settings on top of DefaultSettings.
func ParseSettingsYAML(data []byte) (Settings, error) {
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	return s.normalized(), nil
}

// ParseSettingsTOML decodes TOML settings on top of DefaultSettings.
func ParseSettingsTOML(data []byte) (Settings, error) {
	s := DefaultSettings()
	if err := toml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	return s.normalized(), nil
}

// LoadSettings reads settings from a .yaml, .yml or .toml file. The material
// is never loaded from a file and must be set by the caller.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseSettingsYAML(data)
	case ".toml":
		return ParseSettingsTOML(data)
	default:
		return Settings{}, fmt.Errorf("load settings: unsupported file type %q", filepath.Ext(path))
	}
}
