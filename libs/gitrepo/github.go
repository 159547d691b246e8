package gitrepo

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// GitHubProvider implements Provider for GitHub repositories
type GitHubProvider struct {
	pat string // Personal Access Token
}

func NewGitHubProvider(pat string) *GitHubProvider {
	return &GitHubProvider{pat: pat}
}

func (g *GitHubProvider) Name() string {
	return "github"
}

func (g *GitHubProvider) NormalizeURL(url string) string {
	url = strings.TrimSuffix(url, ".git")

	switch {
	case strings.HasPrefix(url, "git@github.com:"):
		url = strings.Replace(url, "git@github.com:", "https://github.com/", 1)
	case strings.HasPrefix(url, "github.com/"):
		url = "https://" + url
	case !strings.HasPrefix(url, "https://") && !strings.HasPrefix(url, "http://"):
		url = "https://github.com/" + url
	}

	return url + ".git"
}

func (g *GitHubProvider) ParseURL(url string) (owner, repo string) {
	url = strings.TrimSuffix(url, ".git")
	url = strings.TrimPrefix(url, "https://github.com/")
	url = strings.TrimPrefix(url, "http://github.com/")
	url = strings.TrimPrefix(url, "github.com/")
	url = strings.TrimPrefix(url, "git@github.com:")

	parts := strings.Split(url, "/")
	if len(parts) >= 2 {
		return parts[0], parts[1]
	}
	return "", url
}

func (g *GitHubProvider) ValidateURL(url string) error {
	owner, name := g.ParseURL(url)
	if owner == "" || name == "" {
		return fmt.Errorf("invalid GitHub repository URL format: %s", url)
	}
	return nil
}

func (g *GitHubProvider) Auth() transport.AuthMethod {
	if g.pat == "" {
		return nil
	}
	return &http.BasicAuth{
		Username: "git", // GitHub accepts any username with a PAT
		Password: g.pat,
	}
}

func (g *GitHubProvider) MatchesURL(url string) bool {
	url = strings.ToLower(url)
	return strings.Contains(url, "github.com")
}

// GitLabProvider implements Provider for gitlab.com. Tokens are sent with
// the "oauth2" username GitLab expects for personal and project tokens.
type GitLabProvider struct {
	token string
}

func NewGitLabProvider(token string) *GitLabProvider {
	return &GitLabProvider{token: token}
}

func (g *GitLabProvider) Name() string { return "gitlab" }

func (g *GitLabProvider) NormalizeURL(url string) string {
	if strings.HasPrefix(url, "git@gitlab.com:") {
		url = strings.Replace(url, "git@gitlab.com:", "https://gitlab.com/", 1)
	}
	if !strings.HasSuffix(url, ".git") {
		url += ".git"
	}
	return url
}

func (g *GitLabProvider) ParseURL(url string) (owner, repo string) {
	url = strings.TrimSuffix(url, ".git")
	url = strings.TrimPrefix(url, "https://gitlab.com/")
	url = strings.TrimPrefix(url, "git@gitlab.com:")

	// groups nest, so everything before the last segment is the owner
	i := strings.LastIndex(url, "/")
	if i <= 0 {
		return "", url
	}
	return url[:i], url[i+1:]
}

func (g *GitLabProvider) ValidateURL(url string) error {
	owner, name := g.ParseURL(url)
	if owner == "" || name == "" {
		return fmt.Errorf("invalid GitLab repository URL format: %s", url)
	}
	return nil
}

func (g *GitLabProvider) Auth() transport.AuthMethod {
	if g.token == "" {
		return nil
	}
	return &http.BasicAuth{Username: "oauth2", Password: g.token}
}

func (g *GitLabProvider) MatchesURL(url string) bool {
	return strings.Contains(strings.ToLower(url), "gitlab.com")
}
