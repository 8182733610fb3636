package llm

import (
	"context"
	"fmt"
	"sync"
)

// Provider identifiers for the factory cache.
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// Service is the capability interface over one generation backend. Every
// operation performs at most one outbound call; there are no retries.
type Service interface {
	// Provider identifies the backend variant. Pure, no I/O.
	Provider() string

	// Available reports whether a usable credential resolves (explicit
	// config value, else environment fallback). Pure check, no network.
	Available() bool

	// ExpandPrompt turns a short scene description into a detailed image
	// generation prompt. Returns the response text verbatim, or a
	// synthesized generic sentence when the model returns no usable text.
	ExpandPrompt(ctx context.Context, basePrompt, customContext string) (string, error)

	// GenerateImage composites the product photo into the scene described
	// by prompt. Returns the first image payload found in the response as a
	// data URL or URL string.
	GenerateImage(ctx context.Context, imageBase64, prompt string, opts *GenerateOptions) (string, error)

	// RecommendScenarios proposes exactly 3 scene descriptions for the
	// product photo. Never fails: any call or parse failure yields the
	// fixed fallback list.
	RecommendScenarios(ctx context.Context, imageBase64 string) ([]string, error)

	// EditImage performs masked inpainting; the mask's white region is the
	// area to modify.
	EditImage(ctx context.Context, imageBase64, maskBase64, prompt string) (string, error)
}

// GenerateOptions carries per-call generation options.
type GenerateOptions struct {
	Quality string // style tag appended to the generation instruction
}

// Config is the shared service configuration read by every adapter.
// Template fields override the package defaults in internal/prompt when set.
type Config struct {
	APIKey      string
	BaseURL     string
	ModelText   string
	ModelImage  string
	ModelVision string

	ExpandSystemTemplate string
	ExpandUserTemplate   string
	GenerateTemplate     string

	Extras map[string]string
}

// CredentialAvailable reports whether any adapter would resolve a usable
// credential from the config: the explicit value or a per-provider
// environment fallback. Pure check, no network.
func CredentialAvailable(cfg *Config) bool {
	return resolveGeminiKey(cfg) != "" || resolveOpenRouterKey(cfg) != ""
}

// Factory caches one adapter instance per provider id, sharing a single
// Config. Settings changes replace the Config and drop cached instances.
type Factory struct {
	mu    sync.Mutex
	cfg   *Config
	cache map[string]Service
}

// NewFactory creates a factory around the given shared config.
func NewFactory(cfg *Config) *Factory {
	return &Factory{
		cfg:   cfg,
		cache: make(map[string]Service),
	}
}

// Get returns the cached adapter for the provider id, creating it on first
// use. Unknown provider ids are an error.
func (f *Factory) Get(provider string) (Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if svc, ok := f.cache[provider]; ok {
		return svc, nil
	}

	var svc Service
	switch provider {
	case ProviderGemini:
		svc = NewGeminiService(f.cfg)
	case ProviderOpenRouter:
		svc = NewOpenRouterService(f.cfg)
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}

	f.cache[provider] = svc
	return svc, nil
}

// Config returns the current shared config.
func (f *Factory) Config() *Config {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg
}

// SetConfig replaces the shared config and invalidates all cached adapters
// so the next Get sees the new settings.
func (f *Factory) SetConfig(cfg *Config) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cfg = cfg
	f.cache = make(map[string]Service)
}
