package specification

import (
	"strings"

	"gorm.io/gorm"
)

// BySession restricts bills (or chunks) to one legislative session. Zero means any session.
type BySession struct {
	Year int
}

func (s BySession) Apply(db *gorm.DB) *gorm.DB {
	if s.Year == 0 {
		return db
	}
	return db.Where("session_year = ?", s.Year)
}

// BillNumberIn matches canonical bill numbers.
type BillNumberIn struct {
	Numbers []string
}

func (s BillNumberIn) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("bills.number IN ?", s.Numbers)
}

// BillKeywordSearch ORs every keyword across title, description and summary.
type BillKeywordSearch struct {
	Keywords []string
}

func (s BillKeywordSearch) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(anyILike(db, []string{"bills.title", "bills.description", "bills.summary"}, s.Keywords))
}

// BySponsorNames joins through bill_sponsors to members whose name matches any term.
type BySponsorNames struct {
	Names []string
}

func (s BySponsorNames) Apply(db *gorm.DB) *gorm.DB {
	return db.
		Joins("JOIN bill_sponsors ON bill_sponsors.bill_id = bills.id").
		Joins("JOIN members ON members.id = bill_sponsors.member_id").
		Where(anyILike(db, []string{"members.name"}, s.Names)).
		Distinct("bills.*")
}

// ByCommitteeNames matches the bill's current committee.
type ByCommitteeNames struct {
	Names []string
}

func (s ByCommitteeNames) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(anyILike(db, []string{"bills.committee"}, s.Names))
}

// ExcludeBillNumbers drops the given bills, e.g. the one a related-records lookup started from.
type ExcludeBillNumbers struct {
	Numbers []string
}

func (s ExcludeBillNumbers) Apply(db *gorm.DB) *gorm.DB {
	if len(s.Numbers) == 0 {
		return db
	}
	return db.Where("bills.number NOT IN ?", s.Numbers)
}

// WithoutChunks keeps bills that have full text but no embedded chunks yet.
type WithoutChunks struct{}

func (s WithoutChunks) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("bills.full_text <> ''").
		Where("NOT EXISTS (SELECT 1 FROM bill_chunks WHERE bill_chunks.bill_id = bills.id)")
}

// RecentFirst orders bills by their last action, newest first.
type RecentFirst struct{}

func (s RecentFirst) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("bills.last_action_at DESC NULLS LAST")
}

// anyILike builds "(col1 ILIKE t1 OR col2 ILIKE t1 OR col1 ILIKE t2 ...)" as one grouped condition.
func anyILike(db *gorm.DB, columns []string, terms []string) *gorm.DB {
	group := db.Session(&gorm.Session{NewDB: true})
	first := true
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		pattern := "%" + term + "%"
		for _, col := range columns {
			if first {
				group = group.Where(col+" ILIKE ?", pattern)
				first = false
				continue
			}
			group = group.Or(col+" ILIKE ?", pattern)
		}
	}
	if first {
		// no usable terms: match nothing rather than everything
		return group.Where("1 = 0")
	}
	return group
}
