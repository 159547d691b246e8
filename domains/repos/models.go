package repos

// Repo is a repository record owned by one user.
type Repo struct {
	ID           int64
	OwnerID      int64
	CredentialID *int64
	Name         string
	Description  *string
	URL          string
	IsPrivate    bool
	BranchCount  int32
	CommitCount  int32
	LastUpdated  *int64
	Created      int64
	Updated      int64
}

type CreateParams struct {
	OwnerID      int64
	CredentialID *int64
	Name         string
	Description  *string
	URL          string
	IsPrivate    bool
}

// UpdateParams replaces the mutable metadata of a repository. Nil fields
// keep their current value.
type UpdateParams struct {
	Name         *string
	Description  *string
	CredentialID *int64
	IsPrivate    *bool
}

type ListParams struct {
	OwnerID int64
	Limit   int
	Offset  int
}

type ListResult struct {
	Repos []Repo
	Total int64
}

// Counters are the git-derived statistics written back after a
// successful write operation.
type Counters struct {
	BranchCount int
	CommitCount int
	LastUpdated int64
}
