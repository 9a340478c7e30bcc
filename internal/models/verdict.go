package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Verdict statuses. A verdict is immutable after creation: re-analysis inserts
// a new row and flips the old one to superseded.
const (
	VerdictStatusActive     = "active"
	VerdictStatusSuperseded = "superseded"
	VerdictStatusDismissed  = "dismissed"
)

// Classification values. "scale" is deliberately not a verdict classification;
// scaling is a live-test action (see LiveTest).
const (
	ClassificationTest = "test"
	ClassificationSkip = "skip"
)

// Verdict is the persisted go/no-go decision for one scraped listing.
type Verdict struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	ListingID uint64 `gorm:"not null;index"`
	Listing   Listing

	Keyword string `gorm:"type:varchar(200);not null;index"`
	Status  string `gorm:"type:varchar(20);not null;index;default:'active'"`

	Classification string `gorm:"type:varchar(10);not null;index"`
	RiskLevel      string `gorm:"type:varchar(30);not null"`
	DemandLevel    string `gorm:"type:varchar(10);not null"`

	// Scores are always within [0,100].
	SaturationScore       int `gorm:"not null"`
	EmotionalTriggerScore int `gorm:"not null"`
	ConfidenceScore       int `gorm:"not null"`

	ProfitWorstCase   decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	ProfitAverageCase decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	ProfitBestCase    decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	EstimatedCost     decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	EstimatedShipping decimal.Decimal `gorm:"type:numeric(20,2);not null"`

	// MoneySaved is only meaningful when Classification is skip.
	MoneySaved decimal.Decimal `gorm:"type:numeric(20,2);not null"`

	CommonComplaints datatypes.JSON `gorm:"type:jsonb"`
	FailureReasons   datatypes.JSON `gorm:"type:jsonb"`
	BestAudience     string         `gorm:"type:text"`
	AvoidAudience    string         `gorm:"type:text"`
	RiskReason       string         `gorm:"type:text"`

	AnalyzedAt time.Time `gorm:"type:timestamptz;not null;index"`
	CreatedAt  time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (Verdict) TableName() string {
	return "verdicts"
}
