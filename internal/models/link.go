package models

import "time"

// Link représente un lien raccourci dans la base de données.
type Link struct {
	ID          uint       `gorm:"primaryKey"`
	ShortCode   string     `gorm:"uniqueIndex;size:32;not null"`
	OriginalURL string     `gorm:"not null"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	ExpiresAt   *time.Time // nil means the link never expires
	Clicks      int64      `gorm:"not null;default:0"`
}

// IsExpired reports whether the link is logically dead at the given instant.
// A link with no expiration date never expires; the row itself is kept.
func (l *Link) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}
