package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	FeedbackGood = "good"
	FeedbackBad  = "bad"
)

type BillCitation struct {
	Identifier  string `json:"identifier"`
	Title       string `json:"title"`
	Status      string `json:"status"`
	Committee   string `json:"committee"`
	SponsorName string `json:"sponsorName,omitempty"`
}

type WebCitation struct {
	Number int    `json:"number"`
	URL    string `json:"url,omitempty"`
	Title  string `json:"title"`
}

type ChatMessage struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	Role          string
	Content       string
	Citations     []BillCitation
	WebCitations  []WebCitation
	Reasoning     string
	State         string // finalized, cancelled or errored
	Provider      string
	Feedback      *string
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}
