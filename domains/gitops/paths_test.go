package gitops

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanRel(t *testing.T) {
	tests := []struct {
		in        string
		allowRoot bool
		want      string
		wantErr   bool
	}{
		{in: "", allowRoot: true, want: ""},
		{in: ".", allowRoot: true, want: ""},
		{in: "", wantErr: true},
		{in: "a.txt", want: "a.txt"},
		{in: "./src//main.go", want: filepath.Join("src", "main.go")},
		{in: `src\main.go`, want: filepath.Join("src", "main.go")},
		{in: "src/", want: "src"},
		{in: "../x", wantErr: true},
		{in: "a/../../x", wantErr: true},
		{in: "a/..", wantErr: true},
		{in: "/etc/passwd", wantErr: true},
		{in: `\etc\passwd`, wantErr: true},
		{in: ".git", wantErr: true},
		{in: ".git/config", wantErr: true},
		{in: ".GIT/config", wantErr: true},
		{in: "nul\x00byte", wantErr: true},
		{in: ".github/workflows/ci.yml", want: filepath.Join(".github", "workflows", "ci.yml")},
	}

	for _, tt := range tests {
		got, err := cleanRel(tt.in, tt.allowRoot)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidPath, "%q", tt.in)
			assert.ErrorIs(t, err, ErrInvalidInput, "%q", tt.in)
			continue
		}
		require.NoError(t, err, "%q", tt.in)
		assert.Equal(t, tt.want, got, "%q", tt.in)
	}
}

func TestWithinResolvesSymlinksInsideRoot(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "escape")))
	require.NoError(t, os.Symlink(".git", filepath.Join(root, "gitlink")))

	p, err := within(root, filepath.Join("escape", "x.txt"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p, root+string(filepath.Separator)), p)
	assert.False(t, strings.HasPrefix(p, outside), p)

	_, err = within(root, filepath.Join("gitlink", "config"))
	assert.ErrorIs(t, err, ErrInvalidPath)

	p, err = within(root, "")
	require.NoError(t, err)
	assert.Equal(t, root, p)
}

func TestEntryWithinKeepsTrailingSymlink(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.Symlink("src", filepath.Join(root, "link")))
	require.NoError(t, os.Symlink(".git", filepath.Join(root, "gitlink")))

	p, err := entryWithin(root, "link")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "link"), p)

	p, err = entryWithin(root, filepath.Join("link", "main.go"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "src", "main.go"), p)

	_, err = entryWithin(root, filepath.Join("gitlink", "config"))
	assert.ErrorIs(t, err, ErrInvalidPath)
	_, err = entryWithin(root, "")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestValidateBaseName(t *testing.T) {
	assert.NoError(t, validateBaseName("report.pdf"))
	for _, name := range []string{"", ".", "..", "a/b", `a\b`, ".git"} {
		assert.ErrorIs(t, validateBaseName(name), ErrInvalidInput, name)
	}
}
