package gitrepo

import (
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
)

// Provider describes a git hosting service and how to authenticate with it.
type Provider interface {
	// Name returns the provider name (e.g., "github", "gitlab", "generic")
	Name() string

	// NormalizeURL converts various URL formats to a clone URL
	NormalizeURL(url string) string

	// ParseURL extracts owner and repository name from a URL
	ParseURL(url string) (owner, repo string)

	// ValidateURL checks if the URL is valid for this provider
	ValidateURL(url string) error

	// Auth returns the authentication method for this provider (nil if no auth)
	Auth() transport.AuthMethod

	// MatchesURL returns true if the URL belongs to this provider
	MatchesURL(url string) bool
}

// Registry holds registered providers and allows auto-detection
type Registry struct {
	providers []Provider
}

func NewRegistry() *Registry {
	return &Registry{
		providers: make([]Provider, 0),
	}
}

// Register adds a provider. Detection walks providers in registration order.
func (r *Registry) Register(p Provider) {
	r.providers = append(r.providers, p)
}

// Detect finds the appropriate provider for a given URL
func (r *Registry) Detect(url string) Provider {
	for _, p := range r.providers {
		if p.MatchesURL(url) {
			return p
		}
	}
	return nil
}

// DefaultRegistry has the built-in providers registered without tokens.
// The generic provider matches everything and is registered last.
var DefaultRegistry = NewRegistry()

func init() {
	DefaultRegistry.Register(NewGitHubProvider(""))
	DefaultRegistry.Register(NewGitLabProvider(""))
	DefaultRegistry.Register(NewGenericProvider(""))
}

// GetProviderWithToken returns a provider of the given name using token.
func GetProviderWithToken(providerName string, token string) Provider {
	switch providerName {
	case "github":
		return NewGitHubProvider(token)
	case "gitlab":
		return NewGitLabProvider(token)
	case "generic":
		return NewGenericProvider(token)
	default:
		return nil
	}
}

// GetProviderForURL returns the provider matching url, carrying token.
func GetProviderForURL(url string, token string) Provider {
	baseProvider := DefaultRegistry.Detect(url)
	if baseProvider == nil {
		return nil
	}

	if token == "" {
		return baseProvider
	}

	return GetProviderWithToken(baseProvider.Name(), token)
}

// AuthFor returns the transport auth for cloning url with token, or nil
// when no token is set or the URL does not take one. Tokens only apply to
// http(s) remotes.
func AuthFor(url, token string) transport.AuthMethod {
	lower := strings.ToLower(url)
	if token == "" || !(strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "http://")) {
		return nil
	}
	p := GetProviderForURL(url, token)
	if p == nil {
		return nil
	}
	return p.Auth()
}

// ValidateRepoURL validates that the URL is supported by a registered provider
func ValidateRepoURL(url string) error {
	provider := DefaultRegistry.Detect(url)
	if provider == nil {
		return ErrUnsupportedURL
	}
	return provider.ValidateURL(url)
}
