package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"go.yaml.in/yaml/v3"
)

const defaultTemperature = 0.7

const defaultTemplate = `Write a comprehensive, engaging blog post about: {{.Topic}}

Requirements:
- Write at least 500 words
- Use clear headings and subheadings
- Include an introduction and conclusion
- Make it informative and well-structured
- Use a professional but engaging tone`

// PromptConfig holds the blog prompt template and the Gemini model preferences.
type PromptConfig struct {
	Generation GenerationConfig `yaml:"generation"`
	Gemini     GeminiConfig     `yaml:"gemini"`
}

type GenerationConfig struct {
	Template string      `yaml:"template"`
	Model    ModelConfig `yaml:"model"`
}

type ModelConfig struct {
	MaxTokens int `yaml:"max_tokens"`
	// Temperature is nil when the file leaves it out; 0 is a valid setting.
	Temperature *float64 `yaml:"temperature"`
}

// TemperatureValue returns the configured temperature or the default when unset.
func (m ModelConfig) TemperatureValue() float64 {
	if m.Temperature == nil {
		return defaultTemperature
	}
	return *m.Temperature
}

type GeminiConfig struct {
	PreferredModels []string `yaml:"preferred_models"`
	FallbackModels  []string `yaml:"fallback_models"`
}

func DefaultPromptConfig() *PromptConfig {
	cfg := &PromptConfig{}
	applyDefaults(cfg)
	return cfg
}

// LoadPromptConfig reads the YAML file at path. A missing file yields the
// built-in defaults.
func LoadPromptConfig(path string) (*PromptConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultPromptConfig(), nil
		}
		return nil, fmt.Errorf("failed to read prompt config %s: %w", path, err)
	}

	var cfg PromptConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse prompt config %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *PromptConfig) {
	if strings.TrimSpace(cfg.Generation.Template) == "" {
		cfg.Generation.Template = defaultTemplate
	}
	if cfg.Generation.Model.MaxTokens == 0 {
		cfg.Generation.Model.MaxTokens = 4096
	}
	if cfg.Generation.Model.Temperature == nil {
		temperature := defaultTemperature
		cfg.Generation.Model.Temperature = &temperature
	}
	if len(cfg.Gemini.PreferredModels) == 0 {
		cfg.Gemini.PreferredModels = []string{"gemini-2.0-flash", "gemini-2.5-flash-lite"}
	}
	if len(cfg.Gemini.FallbackModels) == 0 {
		cfg.Gemini.FallbackModels = []string{"gemini-2.0-flash", "gemini-2.5-flash", "gemini-pro-latest", "gemini-flash-latest"}
	}
}

func (p *PromptConfig) Validate() error {
	if _, err := template.New("blog").Parse(p.Generation.Template); err != nil {
		return fmt.Errorf("invalid generation template: %w", err)
	}
	if !strings.Contains(p.Generation.Template, "{{.Topic}}") {
		return fmt.Errorf("generation template must reference {{.Topic}}")
	}
	if p.Generation.Model.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must not be negative, got %d", p.Generation.Model.MaxTokens)
	}
	if t := p.Generation.Model.TemperatureValue(); t < 0 || t > 2 {
		return fmt.Errorf("temperature must be within [0, 2], got %f", t)
	}
	return nil
}
