package model

import "time"

// Favorite is a bookmarked summoner. Key is REGION:gamename#tagline.
type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Key       string    `gorm:"uniqueIndex;not null" json:"key"`
	Region    string    `gorm:"not null" json:"region"`
	GameName  string    `gorm:"not null" json:"gameName"`
	TagLine   string    `gorm:"not null" json:"tagLine"`
	Label     *string   `json:"label,omitempty"`
	CreatedAt time.Time `json:"addedAt"`
}
