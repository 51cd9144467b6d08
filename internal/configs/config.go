package configs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	kerrors "github.com/PolarWolf314/asarlock/internal/errors"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

const (
	DefaultProtocol       = "myclient"
	DefaultPreload        = "preload.js"
	DefaultRendererInput  = "renderer"
	DefaultRendererOutput = "resources/renderer.pak"

	// KeyEnv overrides the key from the config file when set.
	KeyEnv = "ASARLOCK_KEY"

	// RuntimeConfigName is the file the effective config is written to next
	// to the main script.
	RuntimeConfigName = "encryptor.config.json"
)

// ConfigFileNames are searched in order; the first one present wins.
var ConfigFileNames = []string{
	"encryptor.toml",
	"encryptor.yaml",
	"encryptor.yml",
	"encryptor.json",
	"encryptor.jsonc",
}

// DefaultModules are installed into the app before compiled scripts can load.
var DefaultModules = map[string]string{
	"bytenode": "1.4.1",
}

var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*$`)

type EncryptorConfig struct {
	Key               string            `toml:"key" yaml:"key" json:"key"`
	Protocol          string            `toml:"protocol" yaml:"protocol" json:"protocol"`
	Privileges        *Privileges       `toml:"privileges" yaml:"privileges" json:"privileges"`
	NoRegisterSchemes bool              `toml:"noRegisterSchemes" yaml:"noRegisterSchemes" json:"noRegisterSchemes"`
	Preload           StringList        `toml:"preload" yaml:"preload" json:"preload"`
	Renderer          *Renderer         `toml:"renderer" yaml:"renderer" json:"renderer"`
	VerifyAsar        bool              `toml:"verifyAsar" yaml:"verifyAsar" json:"verifyAsar"`
	Modules           map[string]string `toml:"modules,omitempty" yaml:"modules,omitempty" json:"modules,omitempty"`
	Runtime           Runtime           `toml:"runtime,omitempty" yaml:"runtime,omitempty" json:"runtime,omitempty"`
}

// Privileges mirrors the scheme privileges an Electron protocol is
// registered with.
type Privileges struct {
	Standard            bool `toml:"standard" yaml:"standard" json:"standard"`
	Secure              bool `toml:"secure" yaml:"secure" json:"secure"`
	BypassCSP           bool `toml:"bypassCSP" yaml:"bypassCSP" json:"bypassCSP"`
	AllowServiceWorkers bool `toml:"allowServiceWorkers" yaml:"allowServiceWorkers" json:"allowServiceWorkers"`
	SupportFetchAPI     bool `toml:"supportFetchAPI" yaml:"supportFetchAPI" json:"supportFetchAPI"`
	CorsEnabled         bool `toml:"corsEnabled" yaml:"corsEnabled" json:"corsEnabled"`
	Stream              bool `toml:"stream" yaml:"stream" json:"stream"`
	CodeCache           bool `toml:"codeCache" yaml:"codeCache" json:"codeCache"`
}

type Renderer struct {
	Input  []string `toml:"input" yaml:"input" json:"input"`
	Output string   `toml:"output" yaml:"output" json:"output"`
}

// Runtime holds optional scripts injected into the main process.
type Runtime struct {
	// Prelude is a script, relative to the project, prepended to main.
	Prelude string `toml:"prelude,omitempty" yaml:"prelude,omitempty" json:"prelude,omitempty"`
}

// StringList accepts either a single string or a list of strings.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = StringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected a string or a list of strings: %w", err)
	}
	*s = append(StringList{}, many...)
	return nil
}

func (s *StringList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*s = StringList{value.Value}
		return nil
	}
	var many []string
	if err := value.Decode(&many); err != nil {
		return err
	}
	*s = append(StringList{}, many...)
	return nil
}

func (s *StringList) UnmarshalTOML(v interface{}) error {
	switch v := v.(type) {
	case string:
		*s = StringList{v}
	case []interface{}:
		list := make(StringList, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return fmt.Errorf("expected a string in list, got %T", item)
			}
			list = append(list, str)
		}
		*s = list
	default:
		return fmt.Errorf("expected a string or a list of strings, got %T", v)
	}
	return nil
}

// DefaultPrivileges are used when the config names none.
func DefaultPrivileges() *Privileges {
	return &Privileges{
		Standard:            true,
		Secure:              true,
		BypassCSP:           true,
		AllowServiceWorkers: true,
		SupportFetchAPI:     true,
		CorsEnabled:         true,
		Stream:              true,
	}
}

// Default returns a config with every field at its default and no key.
func Default() *EncryptorConfig {
	c := &EncryptorConfig{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills every omitted field. Privileges are replaced as a whole,
// never merged field by field.
func (c *EncryptorConfig) ApplyDefaults() {
	if c.Protocol == "" {
		c.Protocol = DefaultProtocol
	}
	if c.Privileges == nil {
		c.Privileges = DefaultPrivileges()
	}
	if c.Preload == nil {
		c.Preload = StringList{DefaultPreload}
	}
	if c.Renderer == nil {
		c.Renderer = &Renderer{}
	}
	if len(c.Renderer.Input) == 0 {
		c.Renderer.Input = []string{DefaultRendererInput}
	}
	if c.Renderer.Output == "" {
		c.Renderer.Output = DefaultRendererOutput
	}
}

// RuntimeModules returns the default modules overlaid with the configured ones.
func (c *EncryptorConfig) RuntimeModules() map[string]string {
	mods := make(map[string]string, len(DefaultModules)+len(c.Modules))
	for name, version := range DefaultModules {
		mods[name] = version
	}
	for name, version := range c.Modules {
		mods[name] = version
	}
	return mods
}

// Validate checks a config that has had its defaults applied.
func (c *EncryptorConfig) Validate() error {
	if c.Key == "" {
		return fmt.Errorf("%w: set key in the config file or %s", kerrors.ErrMissingSecret, KeyEnv)
	}
	if !schemePattern.MatchString(c.Protocol) {
		return fmt.Errorf("%w: protocol %q is not a valid scheme name", kerrors.ErrConfigInvalid, c.Protocol)
	}
	if c.Renderer == nil || c.Renderer.Output == "" {
		return fmt.Errorf("%w: renderer.output is empty", kerrors.ErrConfigInvalid)
	}
	if !isContained(c.Renderer.Output) {
		return fmt.Errorf("%w: renderer.output %q must stay inside the app directory", kerrors.ErrConfigInvalid, c.Renderer.Output)
	}
	for _, in := range c.Renderer.Input {
		if in == "" || !isContained(in) {
			return fmt.Errorf("%w: renderer.input %q must be a relative path inside the app", kerrors.ErrConfigInvalid, in)
		}
	}
	for _, p := range c.Preload {
		if p == "" || !isContained(p) {
			return fmt.Errorf("%w: preload %q must be a relative path inside the app", kerrors.ErrConfigInvalid, p)
		}
	}
	return nil
}

func isContained(p string) bool {
	p = filepath.ToSlash(p)
	if path.IsAbs(p) || filepath.IsAbs(p) {
		return false
	}
	clean := path.Clean(p)
	return clean != ".." && !strings.HasPrefix(clean, "../")
}

// FindConfigFile returns the first config file present in dir, or "" if
// there is none.
func FindConfigFile(dir string) (string, error) {
	for _, name := range ConfigFileNames {
		p := filepath.Join(dir, name)
		info, err := os.Stat(p)
		if err == nil && !info.IsDir() {
			return p, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("checking %s: %w", p, err)
		}
	}
	return "", nil
}

// Load reads the config for the project in dir. A project without a config
// file gets the defaults. The key from KeyEnv wins over the file.
func Load(dir string) (*EncryptorConfig, error) {
	p, err := FindConfigFile(dir)
	if err != nil {
		return nil, err
	}

	cfg := &EncryptorConfig{}
	if p != "" {
		if cfg, err = LoadFile(p); err != nil {
			return nil, err
		}
	}

	if key := os.Getenv(KeyEnv); key != "" {
		cfg.Key = key
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// LoadFile decodes the config at p, picking the format from its extension.
// Defaults are not applied.
func LoadFile(p string) (*EncryptorConfig, error) {
	cfg := &EncryptorConfig{}
	ext := strings.ToLower(filepath.Ext(p))
	if ext == ".toml" {
		if err := LoadTOML(p, cfg); err != nil {
			var pathErr *fs.PathError
			if errors.As(err, &pathErr) {
				return nil, fmt.Errorf("reading %s: %w", p, err)
			}
			return nil, fmt.Errorf("%w: %s: %v", kerrors.ErrConfigInvalid, p, err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".json", ".jsonc":
		err = json.Unmarshal(jsonc.ToJSON(data), cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported config format %s", kerrors.ErrConfigInvalid, p)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", kerrors.ErrConfigInvalid, p, err)
	}
	return cfg, nil
}

// WriteRuntimeConfig writes the effective config as JSON into dir so the
// protected main process can read it back.
func WriteRuntimeConfig(dir string, c *EncryptorConfig) (string, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding runtime config: %w", err)
	}
	p := filepath.Join(dir, RuntimeConfigName)
	if err := os.WriteFile(p, data, 0644); err != nil {
		return "", fmt.Errorf("writing runtime config: %w", err)
	}
	return p, nil
}
