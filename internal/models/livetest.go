package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LiveTest statuses. Transitions happen only through explicit user or
// recommendation actions; tests are never deleted automatically.
const (
	TestStatusActive = "active"
	TestStatusPaused = "paused"
	TestStatusScaled = "scaled"
	TestStatusKilled = "killed"
)

// LiveTest tracks a real-world paid trial of a candidate product.
// MoneySpent and SalesCount are monotonically non-decreasing; DaysLive is
// derived from StartDate at read time and never stored.
type LiveTest struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	VerdictID uint64 `gorm:"not null;index"`
	Verdict   Verdict

	ProductTitle string `gorm:"type:text;not null"`
	Status       string `gorm:"type:varchar(10);not null;index;default:'active'"`

	StartDate  time.Time       `gorm:"type:timestamptz;not null"`
	MoneySpent decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	SalesCount int             `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (LiveTest) TableName() string {
	return "live_tests"
}
