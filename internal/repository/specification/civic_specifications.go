package specification

import "gorm.io/gorm"

// AnyFieldILike ORs every term across the given columns. Empty terms apply no filter,
// so callers get the top rows by their ordering instead.
type AnyFieldILike struct {
	Columns []string
	Terms   []string
}

func (s AnyFieldILike) Apply(db *gorm.DB) *gorm.DB {
	if len(s.Terms) == 0 {
		return db
	}
	return db.Where(anyILike(db, s.Columns, s.Terms))
}
