package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"dropscout/internal/config"
	"dropscout/internal/livetest"
	"dropscout/internal/models"
	"dropscout/internal/repository"
)

func newTestDesk(repo *stubRepo, now time.Time) *TestDeskService {
	return &TestDeskService{
		Repo: repo,
		Monitor: livetest.NewMonitor(config.LiveTestConfig{
			AvgProfitPerSaleUSD: 30,
			KillAfterDays:       14,
			KillSpendUSD:        500,
			ScaleMinSales:       5,
			PauseAfterDays:      10,
			PauseMaxSales:       2,
		}),
		Now: func() time.Time { return now },
	}
}

func seedVerdict(t *testing.T, repo *stubRepo, classification string) uint64 {
	t.Helper()
	ctx := context.Background()
	if err := repo.InsertListings(ctx, []models.Listing{{Keyword: "earbuds", Title: "Wireless Earbuds"}}); err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	listingID := repo.listings[len(repo.listings)-1].ID
	err := repo.InsertVerdicts(ctx, []models.Verdict{{
		ListingID:      listingID,
		Keyword:        "earbuds",
		Status:         models.VerdictStatusActive,
		Classification: classification,
	}})
	if err != nil {
		t.Fatalf("seed verdict: %v", err)
	}
	return repo.verdicts[len(repo.verdicts)-1].ID
}

func TestStartTestFromVerdict(t *testing.T) {
	repo := newStubRepo()
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	desk := newTestDesk(repo, now)
	verdictID := seedVerdict(t, repo, models.ClassificationTest)

	item, err := desk.StartTest(context.Background(), verdictID, time.Time{})
	if err != nil {
		t.Fatalf("start test: %v", err)
	}
	if item == nil || item.ID == 0 {
		t.Fatalf("test not persisted: %+v", item)
	}
	if item.Status != models.TestStatusActive {
		t.Fatalf("status = %q, want active", item.Status)
	}
	if item.ProductTitle != "Wireless Earbuds" {
		t.Fatalf("title = %q, want copied from listing", item.ProductTitle)
	}
	if !item.StartDate.Equal(now) {
		t.Fatalf("start date = %v, want clock default %v", item.StartDate, now)
	}
	if !item.MoneySpent.IsZero() || item.SalesCount != 0 {
		t.Fatalf("new test must start at zero spend and sales: %+v", item)
	}
}

func TestStartTestRejectsSkipVerdict(t *testing.T) {
	repo := newStubRepo()
	desk := newTestDesk(repo, time.Now())
	verdictID := seedVerdict(t, repo, models.ClassificationSkip)

	if _, err := desk.StartTest(context.Background(), verdictID, time.Time{}); !errors.Is(err, ErrVerdictNotTestable) {
		t.Fatalf("err = %v, want ErrVerdictNotTestable", err)
	}

	item, err := desk.StartTest(context.Background(), 9999, time.Time{})
	if err != nil || item != nil {
		t.Fatalf("missing verdict: got %+v, %v; want nil, nil", item, err)
	}
}

func TestRecordSpendMissingTest(t *testing.T) {
	desk := newTestDesk(newStubRepo(), time.Now())

	item, err := desk.RecordSpend(context.Background(), 77, decimal.NewFromInt(10))
	if err != nil || item != nil {
		t.Fatalf("spend on missing test: got %+v, %v; want nil, nil", item, err)
	}
	got, err := desk.RecordSales(context.Background(), 77, 1)
	if err != nil || got != nil {
		t.Fatalf("sales on missing test: got %+v, %v; want nil, nil", got, err)
	}
}

func TestRecordSpendAndSales(t *testing.T) {
	repo := newStubRepo()
	now := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	desk := newTestDesk(repo, now)
	verdictID := seedVerdict(t, repo, models.ClassificationTest)
	item, err := desk.StartTest(context.Background(), verdictID, now.AddDate(0, 0, -3))
	if err != nil {
		t.Fatalf("start test: %v", err)
	}

	got, err := desk.RecordSpend(context.Background(), item.ID, decimal.NewFromInt(120))
	if err != nil {
		t.Fatalf("record spend: %v", err)
	}
	if !got.MoneySpent.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("spend = %s, want 120", got.MoneySpent)
	}

	got, err = desk.RecordSales(context.Background(), item.ID, 6)
	if err != nil {
		t.Fatalf("record sales: %v", err)
	}
	if got.SalesCount != 6 {
		t.Fatalf("sales = %d, want 6", got.SalesCount)
	}

	// 6 sales x $30 = $180 revenue against $120 spend: profitable trend.
	if got.Recommendation.Action != livetest.ActionScale {
		t.Fatalf("recommendation = %s, want scale", got.Recommendation.Action)
	}
	if !got.Recommendation.BreakEven {
		t.Fatalf("expected break-even recommendation, got %+v", got.Recommendation)
	}
}

func TestKilledTestIsReadOnly(t *testing.T) {
	repo := newStubRepo()
	now := time.Now().UTC()
	desk := newTestDesk(repo, now)
	verdictID := seedVerdict(t, repo, models.ClassificationTest)
	item, err := desk.StartTest(context.Background(), verdictID, now)
	if err != nil {
		t.Fatalf("start test: %v", err)
	}

	if _, err := desk.ApplyAction(context.Background(), item.ID, livetest.ActionKill); err != nil {
		t.Fatalf("kill: %v", err)
	}

	if _, err := desk.RecordSpend(context.Background(), item.ID, decimal.NewFromInt(10)); !errors.Is(err, ErrTestClosed) {
		t.Fatalf("spend on killed test: err = %v, want ErrTestClosed", err)
	}
	if _, err := desk.RecordSales(context.Background(), item.ID, 1); !errors.Is(err, ErrTestClosed) {
		t.Fatalf("sales on killed test: err = %v, want ErrTestClosed", err)
	}
	if _, err := desk.ApplyAction(context.Background(), item.ID, livetest.ActionContinue); !errors.Is(err, ErrTestClosed) {
		t.Fatalf("revive killed test: err = %v, want ErrTestClosed", err)
	}
}

func TestApplyActionTransitions(t *testing.T) {
	repo := newStubRepo()
	now := time.Now().UTC()
	desk := newTestDesk(repo, now)
	verdictID := seedVerdict(t, repo, models.ClassificationTest)
	item, err := desk.StartTest(context.Background(), verdictID, now)
	if err != nil {
		t.Fatalf("start test: %v", err)
	}

	steps := []struct {
		action livetest.Action
		want   string
	}{
		{action: livetest.ActionPause, want: models.TestStatusPaused},
		{action: livetest.ActionContinue, want: models.TestStatusActive},
		{action: livetest.ActionScale, want: models.TestStatusScaled},
	}
	for _, step := range steps {
		got, err := desk.ApplyAction(context.Background(), item.ID, step.action)
		if err != nil {
			t.Fatalf("%s: %v", step.action, err)
		}
		if got.Status != step.want {
			t.Fatalf("%s: status = %q, want %q", step.action, got.Status, step.want)
		}
	}

	if _, err := desk.ApplyAction(context.Background(), item.ID, livetest.Action("boost")); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("err = %v, want ErrInvalidAction", err)
	}
}

func TestSweepFlagsOnlyActionableTests(t *testing.T) {
	repo := newStubRepo()
	now := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	desk := newTestDesk(repo, now)

	fresh := &models.LiveTest{Status: models.TestStatusActive, StartDate: now.AddDate(0, 0, -1), SalesCount: 3, MoneySpent: decimal.NewFromInt(50)}
	stale := &models.LiveTest{Status: models.TestStatusActive, StartDate: now.AddDate(0, 0, -20), SalesCount: 0, MoneySpent: decimal.NewFromInt(50)}
	killed := &models.LiveTest{Status: models.TestStatusKilled, StartDate: now.AddDate(0, 0, -30)}
	for _, item := range []*models.LiveTest{fresh, stale, killed} {
		if err := repo.InsertLiveTest(context.Background(), item); err != nil {
			t.Fatalf("seed test: %v", err)
		}
	}

	if n := desk.Sweep(context.Background()); n != 1 {
		t.Fatalf("flagged %d tests, want 1 (stale no-sales test only)", n)
	}
}

func TestTestsReturnsRecommendations(t *testing.T) {
	repo := newStubRepo()
	now := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	desk := newTestDesk(repo, now)
	verdictID := seedVerdict(t, repo, models.ClassificationTest)
	if _, err := desk.StartTest(context.Background(), verdictID, now.AddDate(0, 0, -2)); err != nil {
		t.Fatalf("start test: %v", err)
	}

	items, total, err := desk.Tests(context.Background(), repository.ListLiveTestsParams{})
	if err != nil {
		t.Fatalf("list tests: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("got %d/%d tests, want 1/1", len(items), total)
	}
	rec := items[0].Recommendation
	if rec.Action != livetest.ActionContinue {
		t.Fatalf("recommendation = %s, want continue for a young test", rec.Action)
	}
	if rec.DaysLive != 2 {
		t.Fatalf("days live = %d, want 2", rec.DaysLive)
	}
}
