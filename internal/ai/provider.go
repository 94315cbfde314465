// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package ai generates interpretation text through one of several LLM
// providers (OpenAI, Gemini, Claude). The Registry holds every provider
// with credentials and routes generation to the active one.
package ai

import (
	"context"
	"fmt"
	"sync"

	"astrodesk/internal/astro"
	"astrodesk/internal/models"
)

// Provider is one LLM backend. Implementations own their HTTP wire format
// and auth scheme.
type Provider interface {
	// Generate returns the model's reply to the given prompts.
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Name is the provider identifier ("openai", "gemini", "claude").
	Name() string
}

// ProviderConfig holds the credentials and settings for a single provider.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Registry manages available AI providers and selects the active one.
// All methods are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	active    string
}

// NewRegistry builds providers for every config carrying an API key;
// keyless entries are skipped so a deployment only needs credentials for
// the providers it actually uses.
func NewRegistry(active string, configs map[string]ProviderConfig) *Registry {
	r := &Registry{
		providers: make(map[string]Provider),
		active:    active,
	}

	for name, cfg := range configs {
		if cfg.APIKey == "" {
			continue
		}
		switch name {
		case "openai":
			r.providers[name] = newOpenAI(cfg)
		case "gemini":
			r.providers[name] = newGemini(cfg)
		case "claude":
			r.providers[name] = newClaude(cfg)
		}
	}

	return r
}

// GenerateInterpretation produces interpretation text for computed chart
// geometry. It is fallible and latency-bearing; callers invoke it only after
// an admission-control pass and a cache miss.
func (r *Registry) GenerateInterpretation(ctx context.Context, chart astro.ChartData, chartType models.ChartType, school, relationshipType string) (string, error) {
	p, err := r.Active()
	if err != nil {
		return "", err
	}
	system, user := interpretationPrompts(chart, chartType, school, relationshipType)
	return p.Generate(ctx, system, user)
}

// Active returns the currently active provider.
func (r *Registry) Active() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[r.active]
	if !ok {
		return nil, fmt.Errorf("ai: no provider configured for %q", r.active)
	}
	return p, nil
}

// SetActive switches generation to the named provider. Fails if that
// provider was never configured with a key.
func (r *Registry) SetActive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("ai: provider %q is not available (no API key?)", name)
	}
	r.active = name
	return nil
}

// ActiveName returns the name of the currently active provider.
func (r *Registry) ActiveName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.active
}

// Available returns the names of all providers that have valid API keys.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// Register adds or replaces a provider. Tests use it to inject fakes.
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
}

// HasProvider reports whether the named provider is configured.
func (r *Registry) HasProvider(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.providers[name]
	return ok
}
