package repos

import (
	"context"
	"testing"

	"github.com/gomantics/gitdesk/domains/gitops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameFromURL(t *testing.T) {
	tests := map[string]string{
		"https://github.com/acme/widgets.git":   "widgets",
		"https://github.com/acme/widgets/":      "widgets",
		"git@git.example.com:team/tooling.git":  "tooling",
		"  https://gitlab.com/g/sub/project  ":  "project",
		"":                                      "repository",
	}
	for in, want := range tests {
		assert.Equal(t, want, nameFromURL(in), in)
	}
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "abc", "0", "-3", "4x", "042", "+42", " 42"} {
		_, err := parseID(bad)
		assert.ErrorIs(t, err, gitops.ErrNotFound, bad)
	}
}

func TestFindRepositoryRejectsIDAliases(t *testing.T) {
	for _, alias := range []string{"01", "+1", "0001"} {
		_, err := Store{}.FindRepository(context.Background(), alias, 7)
		assert.ErrorIs(t, err, gitops.ErrNotFound, alias)
	}
}
