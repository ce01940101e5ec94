package store

import "time"

// SmartLink is the persisted smart link record. Created once at publish time,
// never updated.
type SmartLink struct {
	ID         uint    `gorm:"primarykey" json:"-"`
	Slug       string  `gorm:"uniqueIndex;not null" json:"slug"`
	Title      string  `gorm:"not null" json:"title"`
	Artist     *string `json:"artist,omitempty"`
	ArtworkURL *string `gorm:"column:artwork_url" json:"artwork_url,omitempty"`

	PlatformLinks []PlatformLink `gorm:"constraint:OnDelete:CASCADE" json:"platforms"`

	CreatedAt time.Time `json:"created_at"`
}

// PlatformLink is one platform URL row of a smart link. The synthetic
// "preview" and "meta_type" rows are stored alongside genuine platforms so the
// view page needs no re-derivation heuristics.
type PlatformLink struct {
	ID          uint   `gorm:"primarykey" json:"-"`
	SmartLinkID uint   `gorm:"index;not null" json:"-"`
	Platform    string `gorm:"not null" json:"platform"`
	URL         string `gorm:"not null" json:"url"`
}
