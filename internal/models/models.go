package models

import "time"

// PremiumRecord is a user's paid access window. A missing record means the
// user has no entitlement; an expired record is removed the next time it is
// checked.
type PremiumRecord struct {
	UserID       int64
	PremiumUntil time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RedeemCode is a single-use token that extends a premium window. Redemption
// deletes the row.
type RedeemCode struct {
	Code         string
	DurationDays int
	CreatedAt    time.Time
}

// Offer is an operator-managed catalog entry shown to users. Price is a
// display string; payment itself happens out of band.
type Offer struct {
	ID           int64
	Title        string
	Price        string
	DurationDays int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Settings holds per-user post generation options.
type Settings struct {
	UserID         int64
	AdRedirectURL  string
	ClickThreshold int
}

// Channel is a promotional link embedded verbatim into generated posts.
type Channel struct {
	ID        int64
	UserID    int64
	Name      string
	URL       string
	CreatedAt time.Time
}

// QualityLink is one quality/download pair collected during the dialogue.
type QualityLink struct {
	Quality string
	URL     string
}

// Draft is the in-progress post assembled by the collection dialogue. It
// lives only in memory until finalized.
type Draft struct {
	Title     string
	PosterURL string
	Year      string
	Language  string
	Links     []QualityLink
}

// Ready reports whether the draft can be finalized.
func (d Draft) Ready() bool {
	return len(d.Links) > 0
}

// Post is a published, immutable rendered document.
type Post struct {
	ID        string
	UserID    int64
	HTML      string
	CreatedAt time.Time
}
