package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"EPUBTR_SOURCE_LANG", "EPUBTR_TARGET_LANG", "EPUBTR_BATCH_SIZE", "EPUBTR_PROVIDER",
		"EPUBTR_OPENAI_API_KEY", "EPUBTR_OPENAI_API_URL", "EPUBTR_OPENAI_MODEL",
		"GEMINI_API_KEY", "GEMINI_API_URL", "GEMINI_MODEL", "TARGET_LANGUAGE",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	d := Defaults()
	if cfg.SourceLang != d.SourceLang || cfg.TargetLang != d.TargetLang || cfg.BatchSize != 5 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.OutputDir != "translated_books" || cfg.Suffix != "_translated" || cfg.Provider != ProviderGoogle {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.OpenAI.Timeout != time.Minute {
		t.Errorf("timeout = %v", cfg.OpenAI.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadLayers(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	yaml := `source_lang: fr
target_lang: German
batch_size: 8
provider: openai
openai:
  api_url: http://file
  model: from-file
  timeout: 10s
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("EPUBTR_OPENAI_MODEL", "env-model")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("batch-size", 5, "")
	flags.String("to", "pt", "")
	if err := flags.Parse([]string{"--batch-size", "3"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, flags)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SourceLang != "fr" {
		t.Errorf("SourceLang = %q", cfg.SourceLang)
	}
	if cfg.TargetLang != "de" {
		t.Errorf("TargetLang = %q, want de (file value, unchanged flag)", cfg.TargetLang)
	}
	if cfg.BatchSize != 3 {
		t.Errorf("BatchSize = %d, want flag value 3", cfg.BatchSize)
	}
	if cfg.OpenAI.Key != "from-env" || cfg.OpenAI.Model != "env-model" || cfg.OpenAI.URL != "http://file" {
		t.Errorf("openai = %+v", cfg.OpenAI)
	}
	if cfg.OpenAI.Timeout != 10*time.Second {
		t.Errorf("timeout = %v", cfg.OpenAI.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil); err == nil {
		t.Fatal("expected error for explicit missing config")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"batch size":     func(c *Config) { c.BatchSize = 0 },
		"target auto":    func(c *Config) { c.TargetLang = "auto" },
		"empty source":   func(c *Config) { c.SourceLang = "" },
		"negative rps":   func(c *Config) { c.RequestsPerSecond = -1 },
		"provider":       func(c *Config) { c.Provider = "babelfish" },
		"openai missing": func(c *Config) { c.Provider = ProviderOpenAI },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Defaults()
			mutate(&c)
			if err := c.Validate(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	env := filepath.Join(dir, ".env")
	if err := os.WriteFile(env, []byte("GEMINI_MODEL=dotenv-model\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("GEMINI_MODEL") })

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), env); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OpenAI.Model != "dotenv-model" {
		t.Errorf("model = %q", cfg.OpenAI.Model)
	}
}

func TestWriteTemplate(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), FileName)
	if err := WriteTemplate(path); err != nil {
		t.Fatalf("WriteTemplate: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# epub-translator") || !strings.Contains(string(data), "batch_size: 5") {
		t.Errorf("template = %s", data)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load template: %v", err)
	}
	if cfg.OpenAI.Timeout != time.Minute || cfg.TargetLang != "pt" {
		t.Errorf("cfg from template = %+v", cfg)
	}

	if err := WriteTemplate(path); err == nil {
		t.Error("expected error when file exists")
	}
}
