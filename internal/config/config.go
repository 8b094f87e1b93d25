package config

import (
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Parse    ParseConfig    `toml:"parse"`
	LLM      LLMConfig      `toml:"llm"`
	Export   ExportConfig   `toml:"export"`
	Render   RenderConfig   `toml:"render"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Observer ObserverConfig `toml:"observer"`
}

type ParseConfig struct {
	// Mode selects the extraction backend: "native" runs the in-process
	// engines, "llamaparse" sends documents to the LlamaParse cloud API.
	Mode                string `toml:"mode"`
	APIKey              string `toml:"api_key"`
	BaseURL             string `toml:"base_url"`
	ResultType          string `toml:"result_type"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
}

type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
}

type ExportConfig struct {
	Dir     string   `toml:"dir"`
	Formats []string `toml:"formats"`
}

type RenderConfig struct {
	Enabled  bool    `toml:"enabled"`
	DPI      float64 `toml:"dpi"`
	MaxPages int     `toml:"max_pages"`
}

type DatabaseConfig struct {
	Path        string `toml:"path"`
	PostgresURL string `toml:"postgres_url"`
}

type ServerConfig struct {
	Addr          string `toml:"addr"`
	MaxUploadMB   int64  `toml:"max_upload_mb"`
	MaxConcurrent int    `toml:"max_concurrent"`
}

type ObserverConfig struct {
	Enabled bool                       `toml:"enabled"`
	Pricing map[string]ObserverPricing `toml:"pricing"`
}

type ObserverPricing struct {
	Input  float64 `toml:"input"`
	Output float64 `toml:"output"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Parse:    ParseConfig{Mode: "native", ResultType: "markdown", PollIntervalSeconds: 2},
		LLM:      LLMConfig{Provider: "openai", Model: "gpt-4o"},
		Export:   ExportConfig{Dir: "exports", Formats: []string{"json"}},
		Render:   RenderConfig{DPI: 150, MaxPages: 20},
		Database: DatabaseConfig{Path: "quire.db"},
		Server:   ServerConfig{Addr: ":8080", MaxUploadMB: 32, MaxConcurrent: 4},
	}
}

// Load reads config: defaults -> TOML file -> env vars (env wins).
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		path = "quire.toml"
	}

	if data, err := os.ReadFile(path); err == nil {
		_ = toml.Unmarshal(data, &cfg)
	}

	// Env overrides
	if v := os.Getenv("QUIRE_PARSE_MODE"); v != "" {
		cfg.Parse.Mode = v
	}
	if v := os.Getenv("QUIRE_PARSE_API_KEY"); v != "" {
		cfg.Parse.APIKey = v
	}
	if v := os.Getenv("QUIRE_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("QUIRE_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("QUIRE_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("QUIRE_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("QUIRE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("QUIRE_POSTGRES_URL"); v != "" {
		cfg.Database.PostgresURL = v
	}
	if v := os.Getenv("QUIRE_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if os.Getenv("QUIRE_OBSERVER_ENABLED") == "true" || os.Getenv("QUIRE_OBSERVER_ENABLED") == "1" {
		cfg.Observer.Enabled = true
	}

	return cfg
}

// Validate checks the loaded config for values no component would accept.
// Empty fields pass; they either have defaults or are optional.
func (c Config) Validate() error {
	return validation.Errors{
		"parse":  c.Parse.Validate(),
		"llm":    c.LLM.Validate(),
		"export": c.Export.Validate(),
		"render": c.Render.Validate(),
		"server": c.Server.Validate(),
	}.Filter()
}

func (p ParseConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Mode, validation.In("native", "llamaparse")),
		validation.Field(&p.ResultType, validation.In("markdown", "text")),
		validation.Field(&p.PollIntervalSeconds, validation.Min(0)),
	)
}

func (l LLMConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Provider, validation.In(
			"gemini", "openai", "groq", "deepseek", "together", "mistral", "ollama",
		)),
	)
}

func (e ExportConfig) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Formats, validation.Each(validation.In("csv", "docx", "json", "md", "txt", "xlsx"))),
	)
}

func (r RenderConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DPI, validation.Min(0.0)),
		validation.Field(&r.MaxPages, validation.Min(0)),
	)
}

func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.MaxUploadMB, validation.Min(int64(0))),
		validation.Field(&s.MaxConcurrent, validation.Min(0)),
	)
}

// Warnings reports API keys whose shape does not match what the vendor
// issues. A wrong-looking key still loads; the caller decides whether to
// log or abort.
func (c Config) Warnings() []string {
	var warns []string
	if c.Parse.APIKey != "" && !strings.HasPrefix(c.Parse.APIKey, "llama-cloud-") {
		warns = append(warns, `parse.api_key does not start with "llama-cloud-"`)
	}
	if c.LLM.Provider == "openai" && c.LLM.APIKey != "" &&
		!strings.HasPrefix(c.LLM.APIKey, "sk-") && !strings.HasPrefix(c.LLM.APIKey, "org-") {
		warns = append(warns, `llm.api_key does not start with "sk-" or "org-"`)
	}
	return warns
}
