package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Production is the app_env value that disables registering stub templates
// unless RegisterInProduction is set.
const Production = "production"

// TemplatesConfig controls the stub templates registered under the
// "artisan::" disk prefix.
type TemplatesConfig struct {
	Paths                map[string]string `mapstructure:"paths" yaml:"paths,omitempty" toml:"paths,omitempty" json:"paths,omitempty"`                                        // Stub name to file path
	CustomDir            string            `mapstructure:"custom_dir" yaml:"custom_dir" toml:"custom_dir" json:"custom_dir"`                                                // Directory of project stubs overriding the defaults
	UseCustom            bool              `mapstructure:"use_custom" yaml:"use_custom" toml:"use_custom" json:"use_custom"`                                                // Register files found in CustomDir
	RegisterInProduction bool              `mapstructure:"register_in_production" yaml:"register_in_production" toml:"register_in_production" json:"register_in_production"` // Register stubs even when AppEnv is production
}

// MakeViewConfig configures the make:view generator.
type MakeViewConfig struct {
	Destination string `mapstructure:"destination" yaml:"destination" toml:"destination" json:"destination"`
}

// Config wraps the configuration used to build a view.
type Config struct {
	AppEnv     string            `mapstructure:"app_env" yaml:"app_env" toml:"app_env" json:"app_env"`
	Disk       string            `mapstructure:"disk" yaml:"disk" toml:"disk" json:"disk"`                                              // Default disk root
	NamedDisks map[string]string `mapstructure:"named_disks" yaml:"named_disks,omitempty" toml:"named_disks,omitempty" json:"named_disks,omitempty"` // Disk name to root
	Components map[string]string `mapstructure:"components" yaml:"components,omitempty" toml:"components,omitempty" json:"components,omitempty"`     // Component name to file path
	Extension  string            `mapstructure:"extension" yaml:"extension" toml:"extension" json:"extension"`
	Cache      bool              `mapstructure:"cache" yaml:"cache" toml:"cache" json:"cache"`
	Watch      bool              `mapstructure:"watch" yaml:"watch" toml:"watch" json:"watch"`
	Templates  TemplatesConfig   `mapstructure:"templates" yaml:"templates" toml:"templates" json:"templates"`
	MakeView   MakeViewConfig    `mapstructure:"make_view" yaml:"make_view" toml:"make_view" json:"make_view"`
}

// Default returns the configuration used when no file is provided.
func Default() Config {
	return Config{
		AppEnv:     Production,
		Disk:       "resources/views",
		NamedDisks: map[string]string{},
		Components: map[string]string{},
		Extension:  ".html",
		Cache:      true,
		Templates: TemplatesConfig{
			Paths:     map[string]string{},
			UseCustom: true,
		},
		MakeView: MakeViewConfig{Destination: "resources/views"},
	}
}

// IsProduction reports whether AppEnv names the production environment.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), Production)
}

// CanRegisterTemplates reports whether stub templates should be registered.
func (c Config) CanRegisterTemplates() bool {
	return !c.IsProduction() || c.Templates.RegisterInProduction
}

// Settings exposes the configuration as a viper instance so values can be
// read with dotted keys such as "templates.custom_dir".
func (c Config) Settings() (*viper.Viper, error) {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("config: marshal settings: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("config: read settings: %w", err)
	}
	return v, nil
}

// Load loads the config from the file path, falling back to env vars if the
// file does not exist. Env vars that are set override values from the file.
//
// Disk, component and stub names are read from the file as written: viper
// would fold their case and split dotted names such as "ui.button".
func Load(filePath string) (Config, error) {
	v := newViper()
	if err := bindEnvs(v); err != nil {
		return Config{}, err
	}

	var names *nameMaps
	if filePath != "" {
		v.SetConfigFile(filePath)
		if _, err := os.Stat(filePath); !errors.Is(err, fs.ErrNotExist) {
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("config: read %s: %w", filePath, err)
			}
			if names, err = readNameMaps(filePath); err != nil {
				return Config{}, err
			}
		}
	}

	cfg, err := unmarshal(v)
	if err != nil {
		return Config{}, err
	}
	names.apply(&cfg)
	return cfg, nil
}

// LoadEnv loads the config from defaults and environment variables only.
func LoadEnv() (Config, error) {
	v := newViper()
	if err := bindEnvs(v); err != nil {
		return Config{}, err
	}
	return unmarshal(v)
}

// Publish writes cfg to path, picking the encoding from the file extension.
// An existing file is kept unless overwrite is set.
func Publish(path string, cfg Config, overwrite bool) error {
	payload, err := Encode(cfg, filepath.Ext(path))
	if err != nil {
		return err
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config: %s: %w", path, fs.ErrExist)
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create dir: %w", err)
		}
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Encode serialises cfg as yaml, toml or json according to ext.
func Encode(cfg Config, ext string) ([]byte, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "yaml", "yml":
		return yaml.Marshal(cfg)
	case "toml":
		return toml.Marshal(cfg)
	case "json":
		return json.MarshalIndent(cfg, "", "  ")
	default:
		return nil, fmt.Errorf("config: unsupported format %q", ext)
	}
}

// keyDelimiter separates nested viper keys. Names like "ui.button" are
// valid component names, so "." cannot be used.
const keyDelimiter = "::"

func key(parts ...string) string {
	return strings.Join(parts, keyDelimiter)
}

func newViper() *viper.Viper {
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))

	def := Default()
	v.SetDefault("app_env", def.AppEnv)
	v.SetDefault("disk", def.Disk)
	v.SetDefault("extension", def.Extension)
	v.SetDefault("cache", def.Cache)
	v.SetDefault("watch", def.Watch)
	v.SetDefault(key("templates", "use_custom"), def.Templates.UseCustom)
	v.SetDefault(key("templates", "register_in_production"), def.Templates.RegisterInProduction)
	v.SetDefault(key("make_view", "destination"), def.MakeView.Destination)
	return v
}

// nameMaps holds the name keyed maps of a config file, decoded without
// viper so keys keep their case.
type nameMaps struct {
	NamedDisks map[string]string `yaml:"named_disks" toml:"named_disks" json:"named_disks"`
	Components map[string]string `yaml:"components" toml:"components" json:"components"`
	Templates  struct {
		Paths map[string]string `yaml:"paths" toml:"paths" json:"paths"`
	} `yaml:"templates" toml:"templates" json:"templates"`
}

// readNameMaps decodes the name keyed maps of path. It returns nil for
// formats other than yaml, toml and json, leaving viper's values in place.
func readNameMaps(path string) (*nameMaps, error) {
	var decode func([]byte, any) error
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "yaml", "yml":
		decode = yaml.Unmarshal
	case "toml":
		decode = toml.Unmarshal
	case "json":
		decode = json.Unmarshal
	default:
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	names := &nameMaps{}
	if err := decode(raw, names); err != nil {
		return nil, fmt.Errorf("config: decode names in %s: %w", path, err)
	}
	return names, nil
}

func (n *nameMaps) apply(cfg *Config) {
	if n == nil {
		return
	}
	if n.NamedDisks != nil {
		cfg.NamedDisks = n.NamedDisks
	}
	if n.Components != nil {
		cfg.Components = n.Components
	}
	if n.Templates.Paths != nil {
		cfg.Templates.Paths = n.Templates.Paths
	}
}

func unmarshal(v *viper.Viper) (Config, error) {
	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.NamedDisks == nil {
		cfg.NamedDisks = map[string]string{}
	}
	if cfg.Components == nil {
		cfg.Components = map[string]string{}
	}
	if cfg.Templates.Paths == nil {
		cfg.Templates.Paths = map[string]string{}
	}
	return cfg, nil
}

// envBindings maps config keys to the environment variables that can
// provide them, in order of preference.
var envBindings = map[string][]string{
	"app_env":                          {"VIEW_APP_ENV", "APP_ENV"},
	"disk":                             {"VIEW_DISK"},
	"extension":                        {"VIEW_EXTENSION"},
	"cache":                            {"VIEW_CACHE"},
	"watch":                            {"VIEW_WATCH"},
	key("templates", "custom_dir"):             {"VIEW_TEMPLATES_CUSTOM_DIR"},
	key("templates", "use_custom"):             {"VIEW_TEMPLATES_USE_CUSTOM"},
	key("templates", "register_in_production"): {"VIEW_TEMPLATES_REGISTER_IN_PRODUCTION"},
	key("make_view", "destination"):            {"VIEW_MAKE_VIEW_DESTINATION"},
}

func bindEnvs(v *viper.Viper) error {
	for key, envs := range envBindings {
		inputs := slices.Insert(slices.Clone(envs), 0, key)
		if err := v.BindEnv(inputs...); err != nil {
			return err
		}
	}
	return nil
}
