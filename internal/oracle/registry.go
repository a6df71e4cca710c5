package oracle

import "fmt"

// ProviderFactory creates a new oracle provider instance.
type ProviderFactory func() (Oracle, error)

// global registry of available providers
var providers = make(map[string]ProviderFactory)

// RegisterProvider registers a provider factory under the given name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewProvider creates a provider instance by name.
func NewProvider(name string) (Oracle, error) {
	factory, exists := providers[name]
	if !exists {
		return nil, fmt.Errorf("unsupported oracle provider: %s", name)
	}
	return factory()
}
