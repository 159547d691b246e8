package gitrepo

import (
	"errors"
	"fmt"
	neturl "net/url"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

var ErrUnsupportedURL = errors.New("unsupported repository URL")

// GenericProvider handles any other host. It is the registry fallback.
type GenericProvider struct {
	token string
}

func NewGenericProvider(token string) *GenericProvider {
	return &GenericProvider{token: token}
}

func (g *GenericProvider) Name() string { return "generic" }

func (g *GenericProvider) NormalizeURL(url string) string { return url }

func (g *GenericProvider) ParseURL(url string) (owner, repo string) {
	url = strings.TrimSuffix(strings.TrimSuffix(url, "/"), ".git")
	if u, err := neturl.Parse(url); err == nil && u.Host != "" {
		url = strings.TrimPrefix(u.Path, "/")
	} else if i := strings.Index(url, ":"); i >= 0 {
		url = url[i+1:] // scp-like git@host:owner/repo
	}

	i := strings.LastIndex(url, "/")
	if i < 0 {
		return "", url
	}
	return url[:i], url[i+1:]
}

// ValidateURL accepts http(s), ssh, git and scp-like remotes. Local paths
// and file:// URLs are rejected so callers cannot clone server directories.
func (g *GenericProvider) ValidateURL(url string) error {
	if isSCPLike(url) {
		return nil
	}

	u, err := neturl.Parse(url)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedURL, err)
	}

	switch u.Scheme {
	case "http", "https", "ssh", "git":
	default:
		return fmt.Errorf("%w: scheme %q", ErrUnsupportedURL, u.Scheme)
	}
	if u.Host == "" || strings.Trim(u.Path, "/") == "" {
		return fmt.Errorf("%w: %s", ErrUnsupportedURL, url)
	}
	return nil
}

func (g *GenericProvider) Auth() transport.AuthMethod {
	if g.token == "" {
		return nil
	}
	return &http.BasicAuth{Username: "git", Password: g.token}
}

func (g *GenericProvider) MatchesURL(string) bool { return true }

func isSCPLike(url string) bool {
	at := strings.Index(url, "@")
	colon := strings.Index(url, ":")
	return at > 0 && colon > at && !strings.Contains(url[:colon], "/")
}
