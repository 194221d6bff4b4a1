package retrieval

import (
	"fmt"
	"strings"

	"civic-assistant-be/internal/entity"
)

// RenderBill formats a bill with the fields shared by every bill-backed source.
func RenderBill(b *entity.Bill) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d session): %s\n", b.Number, b.SessionYear, b.Title)
	if b.Status != "" {
		fmt.Fprintf(&sb, "Status: %s\n", b.Status)
	}
	if b.Committee != "" {
		fmt.Fprintf(&sb, "Committee: %s\n", b.Committee)
	}
	if b.SponsorName != "" {
		fmt.Fprintf(&sb, "Sponsor: %s\n", b.SponsorName)
	}
	if b.SponsorCount > 0 || b.CosponsorCount > 0 {
		fmt.Fprintf(&sb, "Sponsors: %d, co-sponsors: %d\n", b.SponsorCount, b.CosponsorCount)
	}
	if b.CompanionNumber != "" {
		fmt.Fprintf(&sb, "Companion bill: %s\n", b.CompanionNumber)
	}
	if b.LastActionAt != nil {
		fmt.Fprintf(&sb, "Last action: %s\n", b.LastActionAt.Format("2006-01-02"))
	}
	switch {
	case b.Summary != "":
		fmt.Fprintf(&sb, "Summary: %s\n", b.Summary)
	case b.Description != "":
		fmt.Fprintf(&sb, "Description: %s\n", b.Description)
	}
	return strings.TrimRight(sb.String(), "\n")
}
