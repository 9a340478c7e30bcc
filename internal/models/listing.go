package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Listing is a scraped marketplace listing, persisted as the immutable input
// of an analysis run. Rating is nullable: not every platform exposes one.
type Listing struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	Keyword string `gorm:"type:varchar(200);not null;index"`

	Title          string           `gorm:"type:text;not null"`
	Price          *decimal.Decimal `gorm:"type:numeric(20,2)"`
	Rating         *float64
	ReviewCount    int    `gorm:"not null;default:0"`
	SourcePlatform string `gorm:"type:varchar(20);not null;index"`
	ProductURL     string `gorm:"type:text"`
	ImageURL       string `gorm:"type:text"`

	ScrapedAt time.Time `gorm:"type:timestamptz;not null;index"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (Listing) TableName() string {
	return "listings"
}
