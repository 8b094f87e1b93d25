package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Parse.Mode != "native" {
		t.Errorf("Parse.Mode = %q, want native", cfg.Parse.Mode)
	}
	if cfg.Parse.ResultType != "markdown" {
		t.Errorf("Parse.ResultType = %q, want markdown", cfg.Parse.ResultType)
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.Model != "gpt-4o" {
		t.Errorf("LLM = %s/%s, want openai/gpt-4o", cfg.LLM.Provider, cfg.LLM.Model)
	}
	if cfg.Export.Dir != "exports" {
		t.Errorf("Export.Dir = %q, want exports", cfg.Export.Dir)
	}
	if cfg.Render.DPI != 150 || cfg.Render.MaxPages != 20 {
		t.Errorf("Render = %v/%d, want 150/20", cfg.Render.DPI, cfg.Render.MaxPages)
	}
	if cfg.Database.Path != "quire.db" {
		t.Errorf("Database.Path = %q, want quire.db", cfg.Database.Path)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Observer.Enabled {
		t.Error("Observer.Enabled should default to false")
	}
}

func TestLoadFromTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quire.toml")
	data := `
[parse]
mode = "llamaparse"
api_key = "llama-cloud-abc"

[llm]
provider = "gemini"
model = "gemini-2.5-flash"

[export]
dir = "/tmp/out"
formats = ["json", "xlsx"]

[render]
enabled = true
dpi = 96

[server]
addr = ":9090"

[observer]
enabled = true

[observer.pricing."gpt-4o"]
input = 2.5
output = 10.0
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Load(path)

	if cfg.Parse.Mode != "llamaparse" {
		t.Errorf("Parse.Mode = %q, want llamaparse", cfg.Parse.Mode)
	}
	if cfg.Parse.APIKey != "llama-cloud-abc" {
		t.Errorf("Parse.APIKey = %q", cfg.Parse.APIKey)
	}
	if cfg.LLM.Provider != "gemini" || cfg.LLM.Model != "gemini-2.5-flash" {
		t.Errorf("LLM = %s/%s", cfg.LLM.Provider, cfg.LLM.Model)
	}
	if cfg.Export.Dir != "/tmp/out" {
		t.Errorf("Export.Dir = %q", cfg.Export.Dir)
	}
	if len(cfg.Export.Formats) != 2 || cfg.Export.Formats[1] != "xlsx" {
		t.Errorf("Export.Formats = %v", cfg.Export.Formats)
	}
	if !cfg.Render.Enabled || cfg.Render.DPI != 96 {
		t.Errorf("Render = %+v", cfg.Render)
	}
	// Unset TOML keys keep their defaults.
	if cfg.Render.MaxPages != 20 {
		t.Errorf("Render.MaxPages = %d, want default 20", cfg.Render.MaxPages)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if !cfg.Observer.Enabled {
		t.Error("Observer.Enabled should be true")
	}
	p, ok := cfg.Observer.Pricing["gpt-4o"]
	if !ok || p.Input != 2.5 || p.Output != 10.0 {
		t.Errorf("Observer.Pricing = %+v", cfg.Observer.Pricing)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if cfg.LLM.Provider != "openai" {
		t.Errorf("missing file should yield defaults, got provider %q", cfg.LLM.Provider)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("QUIRE_LLM_PROVIDER", "groq")
	t.Setenv("QUIRE_LLM_MODEL", "llama-3.3-70b-versatile")
	t.Setenv("QUIRE_LLM_API_KEY", "gsk_test")
	t.Setenv("QUIRE_PARSE_API_KEY", "llama-cloud-env")
	t.Setenv("QUIRE_POSTGRES_URL", "postgres://localhost/quire")
	t.Setenv("QUIRE_OBSERVER_ENABLED", "1")

	cfg := Load(filepath.Join(t.TempDir(), "absent.toml"))

	if cfg.LLM.Provider != "groq" {
		t.Errorf("LLM.Provider = %q, want groq", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "llama-3.3-70b-versatile" {
		t.Errorf("LLM.Model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.APIKey != "gsk_test" {
		t.Errorf("LLM.APIKey = %q", cfg.LLM.APIKey)
	}
	if cfg.Parse.APIKey != "llama-cloud-env" {
		t.Errorf("Parse.APIKey = %q", cfg.Parse.APIKey)
	}
	if cfg.Database.PostgresURL != "postgres://localhost/quire" {
		t.Errorf("Database.PostgresURL = %q", cfg.Database.PostgresURL)
	}
	if !cfg.Observer.Enabled {
		t.Error("Observer.Enabled should be set by env")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}

	cfg.Parse.Mode = "ocr"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown parse.mode should fail validation")
	}
	cfg.Parse.Mode = "native"

	cfg.LLM.Provider = "anthropic"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown llm.provider should fail validation")
	}
	cfg.LLM.Provider = "ollama"

	cfg.Export.Formats = []string{"json", "pdf"}
	if err := cfg.Validate(); err == nil {
		t.Error("unknown export format should fail validation")
	}
	cfg.Export.Formats = []string{"json"}

	cfg.Render.DPI = -1
	if err := cfg.Validate(); err == nil {
		t.Error("negative render.dpi should fail validation")
	}
}

func TestWarnings(t *testing.T) {
	cfg := Default()
	if warns := cfg.Warnings(); len(warns) != 0 {
		t.Errorf("empty keys should not warn, got %v", warns)
	}

	cfg.Parse.APIKey = "llx-wrong"
	cfg.LLM.APIKey = "key-123"
	warns := cfg.Warnings()
	if len(warns) != 2 {
		t.Fatalf("want 2 warnings, got %v", warns)
	}

	cfg.Parse.APIKey = "llama-cloud-ok"
	cfg.LLM.APIKey = "sk-ok"
	if warns := cfg.Warnings(); len(warns) != 0 {
		t.Errorf("well-formed keys should not warn, got %v", warns)
	}

	// Non-openai providers issue keys with other shapes; no warning.
	cfg.LLM.Provider = "groq"
	cfg.LLM.APIKey = "gsk_whatever"
	if warns := cfg.Warnings(); len(warns) != 0 {
		t.Errorf("non-openai key shape should not warn, got %v", warns)
	}
}
