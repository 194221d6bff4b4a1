package specification_test

import (
	"testing"

	"civic-assistant-be/internal/model"
	"civic-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// dryRun opens a postgres dialect that never connects, so statements can be rendered.
func dryRun(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=test dbname=test sslmode=disable"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return db
}

func billSQL(db *gorm.DB, specs ...specification.Specification) string {
	return db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		q := tx.Model(&model.Bill{})
		for _, s := range specs {
			q = s.Apply(q)
		}
		var out []model.Bill
		return q.Find(&out)
	})
}

func TestBillSpecifications(t *testing.T) {
	db := dryRun(t)

	tests := []struct {
		name     string
		specs    []specification.Specification
		contains []string
		absent   []string
	}{
		{
			name:   "session zero is unfiltered",
			specs:  []specification.Specification{specification.BySession{}},
			absent: []string{"session_year ="},
		},
		{
			name:     "session year",
			specs:    []specification.Specification{specification.BySession{Year: 2025}},
			contains: []string{"session_year = 2025"},
		},
		{
			name:     "numbers",
			specs:    []specification.Specification{specification.BillNumberIn{Numbers: []string{"S256", "A1"}}},
			contains: []string{"bills.number IN ('S256','A1')"},
		},
		{
			name:     "keywords are grouped",
			specs:    []specification.Specification{specification.BillKeywordSearch{Keywords: []string{"water"}}},
			contains: []string{"bills.title ILIKE '%water%'", "OR bills.summary ILIKE '%water%'"},
		},
		{
			name:     "sponsor join",
			specs:    []specification.Specification{specification.BySponsorNames{Names: []string{"Krueger"}}},
			contains: []string{"JOIN bill_sponsors", "members.name ILIKE '%Krueger%'", "DISTINCT"},
		},
		{
			name:   "exclusion without numbers is a no-op",
			specs:  []specification.Specification{specification.ExcludeBillNumbers{}},
			absent: []string{"NOT IN"},
		},
		{
			name:     "pending embedding",
			specs:    []specification.Specification{specification.WithoutChunks{}},
			contains: []string{"NOT EXISTS (SELECT 1 FROM bill_chunks"},
		},
		{
			name:   "zero pagination is unbounded",
			specs:  []specification.Specification{specification.Pagination{}},
			absent: []string{"LIMIT", "OFFSET"},
		},
		{
			name: "ordering and paging",
			specs: []specification.Specification{
				specification.RecentFirst{},
				specification.Pagination{Limit: 5, Offset: 10},
			},
			contains: []string{"ORDER BY bills.last_action_at DESC NULLS LAST", "LIMIT 5", "OFFSET 10"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql := billSQL(db, tt.specs...)
			for _, want := range tt.contains {
				assert.Contains(t, sql, want)
			}
			for _, unwanted := range tt.absent {
				assert.NotContains(t, sql, unwanted)
			}
		})
	}
}

func TestMessageOwnedByUsesSubquery(t *testing.T) {
	db := dryRun(t)
	userID := uuid.MustParse("66a32015-43b7-4f30-a4c9-6f4c74a0d3c3")

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var out []model.ChatMessage
		return specification.MessageOwnedBy{UserID: userID}.Apply(tx.Model(&model.ChatMessage{})).Find(&out)
	})

	assert.Contains(t, sql, "chat_session_id IN (SELECT id FROM")
	assert.Contains(t, sql, userID.String())
}
