package gormrepository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"dropscout/internal/models"
	"dropscout/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(repo repository.Repository) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// --- Listings ---------------------------------------------------------------

func (s *Store) InsertListings(ctx context.Context, items []models.Listing) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(items, 100).Error
}

// --- Verdicts ---------------------------------------------------------------

func (s *Store) InsertVerdicts(ctx context.Context, items []models.Verdict) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(items, 100).Error
}

func (s *Store) GetVerdictByID(ctx context.Context, id uint64) (*models.Verdict, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Verdict
	err := s.db.WithContext(ctx).
		Preload("Listing").
		First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListVerdicts(ctx context.Context, params repository.ListVerdictsParams) ([]models.Verdict, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyVerdictFilters(s.db.WithContext(ctx).Model(&models.Verdict{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "analyzed_at")
	limit := normalizeLimit(params.Limit, 50)
	offset := normalizeOffset(params.Offset)
	var items []models.Verdict
	if err := query.Preload("Listing").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountVerdicts(ctx context.Context, params repository.ListVerdictsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := applyVerdictFilters(s.db.WithContext(ctx).Model(&models.Verdict{}), params).
		Count(&count).Error
	return count, err
}

func (s *Store) ListActiveVerdictsByKeyword(ctx context.Context, keyword string, since time.Time) ([]models.Verdict, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.Verdict{}).
		Where("keyword = ?", strings.TrimSpace(keyword)).
		Where("status = ?", models.VerdictStatusActive)
	if !since.IsZero() {
		query = query.Where("analyzed_at >= ?", since)
	}
	var items []models.Verdict
	if err := query.Preload("Listing").Order("analyzed_at desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// SupersedeActiveVerdicts flips the still-active verdicts for a keyword that
// predate a fresh analysis run. Called in the same transaction that inserts
// the replacement rows.
func (s *Store) SupersedeActiveVerdicts(ctx context.Context, keyword string, before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	if before.IsZero() {
		before = time.Now().UTC()
	}
	res := s.db.WithContext(ctx).
		Model(&models.Verdict{}).
		Where("keyword = ?", strings.TrimSpace(keyword)).
		Where("status = ?", models.VerdictStatusActive).
		Where("analyzed_at < ?", before).
		Update("status", models.VerdictStatusSuperseded)
	return res.RowsAffected, res.Error
}

func (s *Store) UpdateVerdictStatus(ctx context.Context, id uint64, status string) error {
	if s == nil || s.db == nil {
		return nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.Verdict{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListRefreshKeywords returns distinct keywords whose newest active verdict
// is older than staleBefore. The refresh job re-analyzes these.
func (s *Store) ListRefreshKeywords(ctx context.Context, staleBefore time.Time, limit int) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit = normalizeLimit(limit, 20)
	var keywords []string
	err := s.db.WithContext(ctx).
		Model(&models.Verdict{}).
		Select("keyword").
		Where("status = ?", models.VerdictStatusActive).
		Group("keyword").
		Having("max(analyzed_at) < ?", staleBefore).
		Limit(limit).
		Scan(&keywords).Error
	if err != nil {
		return nil, err
	}
	return keywords, nil
}

// --- Live tests -------------------------------------------------------------

func (s *Store) InsertLiveTest(ctx context.Context, item *models.LiveTest) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetLiveTestByID(ctx context.Context, id uint64) (*models.LiveTest, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.LiveTest
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListLiveTests(ctx context.Context, params repository.ListLiveTestsParams) ([]models.LiveTest, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyLiveTestFilters(s.db.WithContext(ctx).Model(&models.LiveTest{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "start_date")
	limit := normalizeLimit(params.Limit, 50)
	offset := normalizeOffset(params.Offset)
	var items []models.LiveTest
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountLiveTests(ctx context.Context, params repository.ListLiveTestsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := applyLiveTestFilters(s.db.WithContext(ctx).Model(&models.LiveTest{}), params).
		Count(&count).Error
	return count, err
}

func (s *Store) ListActiveLiveTests(ctx context.Context) ([]models.LiveTest, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.LiveTest
	err := s.db.WithContext(ctx).
		Model(&models.LiveTest{}).
		Where("status = ?", models.TestStatusActive).
		Order("start_date asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// AddLiveTestSpend atomically increments a test's spend. Negative amounts
// are rejected so the counter stays monotonic. Returns (nil, nil) for a
// missing test, matching the Get methods.
func (s *Store) AddLiveTestSpend(ctx context.Context, id uint64, amount decimal.Decimal) (*models.LiveTest, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("spend increment must not be negative, got %s", amount)
	}
	res := s.db.WithContext(ctx).
		Model(&models.LiveTest{}).
		Where("id = ?", id).
		Update("money_spent", gorm.Expr("money_spent + ?", amount))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return s.GetLiveTestByID(ctx, id)
}

// AddLiveTestSales atomically increments a test's sales counter. Returns
// (nil, nil) for a missing test.
func (s *Store) AddLiveTestSales(ctx context.Context, id uint64, count int) (*models.LiveTest, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if count < 0 {
		return nil, fmt.Errorf("sales increment must not be negative, got %d", count)
	}
	res := s.db.WithContext(ctx).
		Model(&models.LiveTest{}).
		Where("id = ?", id).
		Update("sales_count", gorm.Expr("sales_count + ?", count))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return s.GetLiveTestByID(ctx, id)
}

func (s *Store) UpdateLiveTestStatus(ctx context.Context, id uint64, status string) error {
	if s == nil || s.db == nil {
		return nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.LiveTest{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// --- Dashboard --------------------------------------------------------------

func (s *Store) StatsSummary(ctx context.Context) (repository.StatsSummary, error) {
	var out repository.StatsSummary
	if s == nil || s.db == nil {
		return out, nil
	}

	type classRow struct {
		Classification string
		Count          int64
	}
	var classRows []classRow
	err := s.db.WithContext(ctx).
		Model(&models.Verdict{}).
		Select("classification, count(*) as count").
		Group("classification").
		Scan(&classRows).Error
	if err != nil {
		return out, err
	}
	for _, row := range classRows {
		out.VerdictsTotal += row.Count
		switch row.Classification {
		case models.ClassificationTest:
			out.VerdictsTest = row.Count
		case models.ClassificationSkip:
			out.VerdictsSkip = row.Count
		}
	}

	type statusRow struct {
		Status string
		Count  int64
	}
	var statusRows []statusRow
	err = s.db.WithContext(ctx).
		Model(&models.LiveTest{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusRows).Error
	if err != nil {
		return out, err
	}
	for _, row := range statusRows {
		switch row.Status {
		case models.TestStatusActive:
			out.TestsActive = row.Count
		case models.TestStatusPaused:
			out.TestsPaused = row.Count
		case models.TestStatusScaled:
			out.TestsScaled = row.Count
		case models.TestStatusKilled:
			out.TestsKilled = row.Count
		}
	}

	var saved struct {
		Total decimal.Decimal
	}
	err = s.db.WithContext(ctx).
		Model(&models.Verdict{}).
		Select("coalesce(sum(money_saved), 0) as total").
		Where("classification = ?", models.ClassificationSkip).
		Where("status <> ?", models.VerdictStatusDismissed).
		Scan(&saved).Error
	if err != nil {
		return out, err
	}
	out.MoneySavedDollars = saved.Total

	return out, nil
}

// --- helpers ----------------------------------------------------------------

func applyVerdictFilters(query *gorm.DB, params repository.ListVerdictsParams) *gorm.DB {
	if params.Keyword != nil && strings.TrimSpace(*params.Keyword) != "" {
		query = query.Where("keyword = ?", strings.TrimSpace(*params.Keyword))
	}
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	if params.Classification != nil && strings.TrimSpace(*params.Classification) != "" {
		query = query.Where("classification = ?", strings.TrimSpace(*params.Classification))
	}
	if params.RiskLevel != nil && strings.TrimSpace(*params.RiskLevel) != "" {
		query = query.Where("risk_level = ?", strings.TrimSpace(*params.RiskLevel))
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("analyzed_at >= ?", *params.Since)
	}
	return query
}

func applyLiveTestFilters(query *gorm.DB, params repository.ListLiveTestsParams) *gorm.DB {
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	if params.VerdictID != nil && *params.VerdictID > 0 {
		query = query.Where("verdict_id = ?", *params.VerdictID)
	}
	return query
}

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
