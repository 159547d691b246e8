package credentials

// Provider names the hosting service a credential authenticates against.
type Provider string

const (
	ProviderGitHub  Provider = "github"
	ProviderGitLab  Provider = "gitlab"
	ProviderGeneric Provider = "generic"
)

func (p Provider) Valid() bool {
	switch p {
	case ProviderGitHub, ProviderGitLab, ProviderGeneric:
		return true
	}
	return false
}

// Credential is a stored access token. The token itself is never part of
// this type; use Token to decrypt it.
type Credential struct {
	ID       int64
	OwnerID  int64
	Provider Provider
	Name     string
	Created  int64
	Updated  int64
}

type CreateParams struct {
	OwnerID  int64
	Provider Provider
	Name     string
	Token    string // plaintext, encrypted before storage
}
