package providers

import "fmt"

// NewProvider selects a provider implementation by name. Supported names:
// "anthropic" and "openai" (the latter also covers OpenAI-compatible
// endpoints via baseURL).
func NewProvider(name, apiKey, baseURL, model string) (LLMProvider, error) {
	switch name {
	case "anthropic":
		return NewAnthropicProvider(apiKey, baseURL, model), nil
	case "openai", "":
		return NewOpenAIProvider(apiKey, baseURL, model), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}
