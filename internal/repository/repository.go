package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"dropscout/internal/models"
)

// Repository is the persistence boundary of the analysis pipeline. Write
// paths are append-mostly: listings and verdicts are immutable rows, live
// tests mutate only through the guarded operations below.
type Repository interface {
	// InTx runs fn against a repository bound to one transaction; fn's
	// error rolls everything back.
	InTx(ctx context.Context, fn func(repo Repository) error) error

	// Listings
	InsertListings(ctx context.Context, items []models.Listing) error

	// Verdicts
	InsertVerdicts(ctx context.Context, items []models.Verdict) error
	GetVerdictByID(ctx context.Context, id uint64) (*models.Verdict, error)
	ListVerdicts(ctx context.Context, params ListVerdictsParams) ([]models.Verdict, error)
	CountVerdicts(ctx context.Context, params ListVerdictsParams) (int64, error)
	ListActiveVerdictsByKeyword(ctx context.Context, keyword string, since time.Time) ([]models.Verdict, error)
	SupersedeActiveVerdicts(ctx context.Context, keyword string, before time.Time) (int64, error)
	UpdateVerdictStatus(ctx context.Context, id uint64, status string) error
	ListRefreshKeywords(ctx context.Context, staleBefore time.Time, limit int) ([]string, error)

	// Live tests
	InsertLiveTest(ctx context.Context, item *models.LiveTest) error
	GetLiveTestByID(ctx context.Context, id uint64) (*models.LiveTest, error)
	ListLiveTests(ctx context.Context, params ListLiveTestsParams) ([]models.LiveTest, error)
	CountLiveTests(ctx context.Context, params ListLiveTestsParams) (int64, error)
	ListActiveLiveTests(ctx context.Context) ([]models.LiveTest, error)
	AddLiveTestSpend(ctx context.Context, id uint64, amount decimal.Decimal) (*models.LiveTest, error)
	AddLiveTestSales(ctx context.Context, id uint64, count int) (*models.LiveTest, error)
	UpdateLiveTestStatus(ctx context.Context, id uint64, status string) error

	// Dashboard
	StatsSummary(ctx context.Context) (StatsSummary, error)
}

type ListVerdictsParams struct {
	Keyword        *string
	Status         *string
	Classification *string
	RiskLevel      *string
	Since          *time.Time
	OrderBy        string
	Asc            *bool
	Limit          int
	Offset         int
}

type ListLiveTestsParams struct {
	Status    *string
	VerdictID *uint64
	OrderBy   string
	Asc       *bool
	Limit     int
	Offset    int
}

// StatsSummary backs the dashboard endpoint: verdict and test counts plus
// the cumulative budget spared by skip verdicts.
type StatsSummary struct {
	VerdictsTotal     int64           `json:"verdicts_total"`
	VerdictsTest      int64           `json:"verdicts_test"`
	VerdictsSkip      int64           `json:"verdicts_skip"`
	TestsActive       int64           `json:"tests_active"`
	TestsPaused       int64           `json:"tests_paused"`
	TestsScaled       int64           `json:"tests_scaled"`
	TestsKilled       int64           `json:"tests_killed"`
	MoneySavedDollars decimal.Decimal `json:"money_saved_dollars"`
}
