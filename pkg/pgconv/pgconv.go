// Package pgconv converts between nullable pgtype values and Go pointers.
package pgconv

import "github.com/jackc/pgx/v5/pgtype"

// ToText maps nil to SQL NULL.
func ToText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func FromText(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

// ToInt8 maps nil to SQL NULL.
func ToInt8(i *int64) pgtype.Int8 {
	if i == nil {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: *i, Valid: true}
}

func FromInt8(i pgtype.Int8) *int64 {
	if !i.Valid {
		return nil
	}
	return &i.Int64
}

// Ptr returns a pointer to v, for inline optional fields.
func Ptr[T any](v T) *T {
	return &v
}

// ValOr dereferences p, falling back to def when p is nil.
func ValOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
