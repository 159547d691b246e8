package credentials

import (
	"context"
	"errors"
	"time"

	"github.com/gomantics/gitdesk/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound      = errors.New("credential not found")
	ErrAlreadyExists = errors.New("credential with this name already exists for provider")
)

// Create encrypts and stores a new credential for its owner.
func Create(ctx context.Context, params CreateParams) (*Credential, error) {
	encrypted, err := encrypt(params.Token)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	row, err := db.Query1(ctx, func(q *db.Queries) (db.GitCredential, error) {
		return q.CreateCredential(ctx, db.CreateCredentialParams{
			OwnerID:        params.OwnerID,
			Provider:       string(params.Provider),
			Name:           params.Name,
			TokenEncrypted: encrypted,
			Created:        now,
			Updated:        now,
		})
	})
	if isUniqueViolation(err) {
		return nil, ErrAlreadyExists
	}
	if err != nil {
		return nil, err
	}

	return toCredential(row), nil
}

// GetForOwner returns the credential only if ownerID owns it.
func GetForOwner(ctx context.Context, id, ownerID int64) (*Credential, error) {
	row, err := getRow(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	return toCredential(row), nil
}

// Token returns the decrypted token of a credential owned by ownerID.
func Token(ctx context.Context, id, ownerID int64) (string, error) {
	row, err := getRow(ctx, id, ownerID)
	if err != nil {
		return "", err
	}
	return decrypt(row.TokenEncrypted)
}

func ListByOwner(ctx context.Context, ownerID int64) ([]Credential, error) {
	rows, err := db.Query1(ctx, func(q *db.Queries) ([]db.GitCredential, error) {
		return q.ListCredentialsByOwner(ctx, ownerID)
	})
	if err != nil {
		return nil, err
	}

	out := make([]Credential, len(rows))
	for i, row := range rows {
		out[i] = *toCredential(row)
	}
	return out, nil
}

func Delete(ctx context.Context, id, ownerID int64) error {
	n, err := db.Query1(ctx, func(q *db.Queries) (int64, error) {
		return q.DeleteCredential(ctx, db.DeleteCredentialParams{ID: id, OwnerID: ownerID})
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func getRow(ctx context.Context, id, ownerID int64) (db.GitCredential, error) {
	row, err := db.Query1(ctx, func(q *db.Queries) (db.GitCredential, error) {
		return q.GetCredentialForOwner(ctx, db.GetCredentialForOwnerParams{ID: id, OwnerID: ownerID})
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return row, ErrNotFound
	}
	return row, err
}

func toCredential(row db.GitCredential) *Credential {
	return &Credential{
		ID:       row.ID,
		OwnerID:  row.OwnerID,
		Provider: Provider(row.Provider),
		Name:     row.Name,
		Created:  row.Created,
		Updated:  row.Updated,
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
