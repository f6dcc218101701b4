// Package config loads the translator's settings from built-in defaults,
// an optional YAML file, a .env file, the environment and CLI flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sg6/epub-translator/langs"
)

// FileName is the config file looked up in the working directory.
const FileName = "epub-translator.yaml"

// Provider names.
const (
	ProviderGoogle = "google"
	ProviderOpenAI = "openai"
)

// OpenAI configures an OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	URL     string        `mapstructure:"api_url" yaml:"api_url"`
	Key     string        `mapstructure:"api_key" yaml:"api_key"`
	Model   string        `mapstructure:"model" yaml:"model"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type Config struct {
	SourceLang        string  `mapstructure:"source_lang" yaml:"source_lang"`
	TargetLang        string  `mapstructure:"target_lang" yaml:"target_lang"`
	BatchSize         int     `mapstructure:"batch_size" yaml:"batch_size"`
	OutputDir         string  `mapstructure:"output_dir" yaml:"output_dir"`
	Suffix            string  `mapstructure:"suffix" yaml:"suffix"`
	Provider          string  `mapstructure:"provider" yaml:"provider"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Verbose           bool    `mapstructure:"verbose" yaml:"verbose"`
	OpenAI            OpenAI  `mapstructure:"openai" yaml:"openai"`
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		SourceLang: "en",
		TargetLang: "pt",
		BatchSize:  5,
		OutputDir:  "translated_books",
		Suffix:     "_translated",
		Provider:   ProviderGoogle,
		OpenAI: OpenAI{
			Timeout: 60 * time.Second,
		},
	}
}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"from":       "source_lang",
	"to":         "target_lang",
	"batch-size": "batch_size",
	"output-dir": "output_dir",
	"provider":   "provider",
	"rps":        "requests_per_second",
	"verbose":    "verbose",
}

// envAliases are the variable names the tool has always honoured, next to
// the EPUBTR_ prefixed ones.
var envAliases = map[string]string{
	"openai.api_key": "GEMINI_API_KEY",
	"openai.api_url": "GEMINI_API_URL",
	"openai.model":   "GEMINI_MODEL",
	"target_lang":    "TARGET_LANGUAGE",
}

// LoadDotEnv loads environment files into the process environment without
// overriding variables already set. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load builds the configuration. path names a YAML file; when empty,
// FileName is used if it exists in the working directory. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	d := Defaults()
	v.SetDefault("source_lang", d.SourceLang)
	v.SetDefault("target_lang", d.TargetLang)
	v.SetDefault("batch_size", d.BatchSize)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("suffix", d.Suffix)
	v.SetDefault("provider", d.Provider)
	v.SetDefault("requests_per_second", d.RequestsPerSecond)
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("openai.api_url", d.OpenAI.URL)
	v.SetDefault("openai.api_key", d.OpenAI.Key)
	v.SetDefault("openai.model", d.OpenAI.Model)
	v.SetDefault("openai.timeout", d.OpenAI.Timeout)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if _, err := os.Stat(FileName); err == nil {
		v.SetConfigFile(FileName)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", FileName, err)
		}
	}

	v.SetEnvPrefix("EPUBTR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, alias := range envAliases {
		envKey := "EPUBTR_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, alias); err != nil {
			return nil, err
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.SourceLang = langs.Resolve(cfg.SourceLang)
	cfg.TargetLang = langs.Resolve(cfg.TargetLang)
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	return &cfg, nil
}

// Validate reports settings the translator cannot run with.
func (c *Config) Validate() error {
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1, got %d", c.BatchSize)
	}
	if c.TargetLang == "" || c.TargetLang == langs.Auto {
		return errors.New("target_lang must name a language")
	}
	if c.SourceLang == "" {
		return errors.New("source_lang must not be empty")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative, got %g", c.RequestsPerSecond)
	}
	switch c.Provider {
	case ProviderGoogle:
	case ProviderOpenAI:
		if c.OpenAI.URL == "" || c.OpenAI.Key == "" || c.OpenAI.Model == "" {
			return errors.New("openai provider needs openai.api_url, openai.api_key and openai.model (or GEMINI_API_URL, GEMINI_API_KEY, GEMINI_MODEL)")
		}
	default:
		return fmt.Errorf("unknown provider %q (want %s or %s)", c.Provider, ProviderGoogle, ProviderOpenAI)
	}
	return nil
}

const templateHeader = `# epub-translator configuration.
# Environment variables EPUBTR_<KEY> (e.g. EPUBTR_BATCH_SIZE, EPUBTR_OPENAI_API_KEY)
# and command-line flags override these values.
`

// WriteTemplate writes the default configuration to path. An existing file
// is left alone and reported as an error.
func WriteTemplate(path string) error {
	data, err := yaml.Marshal(Defaults())
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(templateHeader + string(data)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
