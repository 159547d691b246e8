package gitops

import (
	"context"
	"time"
)

// Key identifies one working copy.
type Key struct {
	OwnerID      int64
	RepositoryID string
}

// RepositoryRecord is the metadata the core needs to materialise a working
// copy. Token is the decrypted access token, empty for public remotes.
type RepositoryRecord struct {
	ID        string
	OwnerID   int64
	URL       string
	IsPrivate bool
	Token     string
}

// Counters are written back to the record after successful writes.
type Counters struct {
	BranchCount int
	CommitCount int
	LastUpdated time.Time
}

// RecordStore is the metadata store. FindRepository returns an error
// matching ErrNotFound when the record does not exist for ownerID.
type RecordStore interface {
	FindRepository(ctx context.Context, repositoryID string, ownerID int64) (*RepositoryRecord, error)
	UpdateCounters(ctx context.Context, repositoryID string, c Counters) error
}

// Identity is the author of commits made through the service.
type Identity struct {
	Name  string
	Email string
}

type ChangeStats struct {
	Additions    int `json:"additions"`
	Deletions    int `json:"deletions"`
	FilesTouched int `json:"files"`
}

type Commit struct {
	Hash        string      `json:"hash"`
	Message     string      `json:"message"`
	AuthorName  string      `json:"author"`
	AuthorEmail string      `json:"email"`
	Date        time.Time   `json:"date"`
	Changes     ChangeStats `json:"changes"`
}

type Branch struct {
	Name           string `json:"name"`
	IsCurrent      bool   `json:"is_current"`
	HeadCommitHash string `json:"commit"`
	CommitCount    int    `json:"commit_count"`
}

type FileKind string

const (
	KindFile      FileKind = "file"
	KindDirectory FileKind = "directory"
)

type FileEntry struct {
	RelativePath string    `json:"path"`
	Name         string    `json:"name"`
	Kind         FileKind  `json:"type"`
	SizeBytes    *int64    `json:"size,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// StatusEntry carries the single-character index and worktree codes of a
// changed path (" ", M, A, D, R, C, U or ?).
type StatusEntry struct {
	Path             string `json:"path"`
	IndexState       string `json:"index"`
	WorkingTreeState string `json:"working_dir"`
}

func (e StatusEntry) Untracked() bool {
	return e.IndexState == "?" && e.WorkingTreeState == "?"
}

func (e StatusEntry) Staged() bool {
	return e.IndexState != " " && e.IndexState != "?"
}

func (e StatusEntry) Unstaged() bool {
	return e.WorkingTreeState != " " && e.WorkingTreeState != "?"
}

type RepositoryStatus struct {
	CurrentBranch string        `json:"branch"`
	Ahead         int           `json:"ahead"`
	Behind        int           `json:"behind"`
	TrackingRef   string        `json:"tracking"`
	Entries       []StatusEntry `json:"files"`
}

// Staged returns the paths with index changes.
func (s RepositoryStatus) Staged() []string {
	return s.paths(StatusEntry.Staged)
}

func (s RepositoryStatus) Unstaged() []string {
	return s.paths(StatusEntry.Unstaged)
}

func (s RepositoryStatus) Untracked() []string {
	return s.paths(StatusEntry.Untracked)
}

func (s RepositoryStatus) paths(match func(StatusEntry) bool) []string {
	out := []string{}
	for _, e := range s.Entries {
		if match(e) {
			out = append(out, e.Path)
		}
	}
	return out
}

type Contributor struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Commits int    `json:"commits"`
}

type Stats struct {
	TotalCommits   int           `json:"total_commits"`
	TotalBranches  int           `json:"total_branches"`
	ActiveBranches int           `json:"active_branches"`
	LatestCommit   *Commit       `json:"latest_commit"`
	Contributors   []Contributor `json:"contributors"`
}

// MergeResult reports a merge. Conflicts lists the conflicting paths when
// Success is false; the workspace is left as it was before the merge.
type MergeResult struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Conflicts []string `json:"conflicts"`
}

// Upload is one received file.
type Upload struct {
	OriginalName string
	Content      []byte
}
