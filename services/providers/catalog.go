package providers

import (
	"sync"
)

// DefaultFreeModel is the builtin model used when nothing else is selected
const DefaultFreeModel = "meta-llama/llama-3.2-3b-instruct:free"

// VisionFallbackModel is used for images when the selected OpenAI model cannot see
const VisionFallbackModel = "gpt-4o-mini"

// ModelInfo contains metadata about a model
type ModelInfo struct {
	// ID is the model identifier sent to the provider
	ID string `json:"id"`

	// Name is the human-readable name
	Name string `json:"name"`

	// Provider that offers this model
	Provider Kind `json:"provider"`

	// SupportsVision is true when the model accepts inline images
	SupportsVision bool `json:"supports_vision"`
}

func defaultModels() map[Kind][]ModelInfo {
	return map[Kind][]ModelInfo{
		KindBuiltin: {
			{ID: "meta-llama/llama-3.2-3b-instruct:free", Name: "Llama 3.2 3B (Free)", Provider: KindBuiltin},
			{ID: "google/gemma-2-9b-it:free", Name: "Gemma 2 9B (Free)", Provider: KindBuiltin},
			{ID: "nousresearch/hermes-3-llama-3.1-405b:free", Name: "Hermes 3 (Free)", Provider: KindBuiltin},
		},
		KindOpenAI: {
			{ID: "gpt-4o-mini", Name: "GPT-4o mini", Provider: KindOpenAI, SupportsVision: true},
			{ID: "gpt-4o", Name: "GPT-4o", Provider: KindOpenAI, SupportsVision: true},
			{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", Provider: KindOpenAI},
		},
		KindGemini: {
			{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash", Provider: KindGemini, SupportsVision: true},
			{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Provider: KindGemini, SupportsVision: true},
		},
	}
}

// Catalog holds the model table for every provider. The builtin list and default
// free model can be replaced at runtime by remote configuration.
type Catalog struct {
	mu        sync.RWMutex
	models    map[Kind][]ModelInfo
	freeModel string
}

// NewCatalog creates a catalog seeded with the built-in model tables
func NewCatalog() *Catalog {
	return &Catalog{
		models:    defaultModels(),
		freeModel: DefaultFreeModel,
	}
}

// Models returns a copy of the model table for kind
func (c *Catalog) Models(kind Kind) []ModelInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]ModelInfo, len(c.models[kind]))
	copy(out, c.models[kind])
	return out
}

// All returns a copy of every model table
func (c *Catalog) All() map[Kind][]ModelInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[Kind][]ModelInfo, len(c.models))
	for kind, list := range c.models {
		cp := make([]ModelInfo, len(list))
		copy(cp, list)
		out[kind] = cp
	}
	return out
}

// FreeModel returns the builtin default model
func (c *Catalog) FreeModel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.freeModel
}

// ResolveModel returns selected when kind lists it, else the first model of kind.
// For builtin an empty result falls back to the free model.
func (c *Catalog) ResolveModel(kind Kind, selected string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	list := c.models[kind]
	model := ""
	for _, m := range list {
		if selected != "" && m.ID == selected {
			model = m.ID
			break
		}
	}
	if model == "" && len(list) > 0 {
		model = list[0].ID
	}
	if model == "" && kind == KindBuiltin {
		model = c.freeModel
	}
	return model
}

// SupportsVision reports whether model accepts images. Unknown models are treated as
// not supporting vision.
func (c *Catalog) SupportsVision(kind Kind, model string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, m := range c.models[kind] {
		if m.ID == model {
			return m.SupportsVision
		}
	}
	return false
}

// SetFreeModels replaces the builtin model list. Empty input is ignored.
func (c *Catalog) SetFreeModels(models []ModelInfo) {
	if len(models) == 0 {
		return
	}
	list := make([]ModelInfo, len(models))
	for i, m := range models {
		m.Provider = KindBuiltin
		if m.Name == "" {
			m.Name = m.ID
		}
		list[i] = m
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.models[KindBuiltin] = list
}

// SetFreeModel replaces the builtin default model. Empty input is ignored.
func (c *Catalog) SetFreeModel(id string) {
	if id == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.freeModel = id
}
