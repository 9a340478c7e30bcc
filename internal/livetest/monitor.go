// Package livetest recomputes recommendations for ongoing paid product
// trials. Evaluation is pure: recommendations are derived from current test
// state and an explicit clock, and are never persisted.
package livetest

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"dropscout/internal/config"
	"dropscout/internal/models"
)

// Action is what the monitor recommends for a live test. Distinct from a
// verdict classification: ActionScale acts on a running trial, it does not
// label a candidate.
type Action string

const (
	ActionContinue Action = "continue"
	ActionPause    Action = "pause"
	ActionScale    Action = "scale"
	ActionKill     Action = "kill"
)

// Recommendation is recomputed on every read so it can never go stale
// relative to mutated spend/sales figures.
type Recommendation struct {
	TestID           uint64          `json:"test_id"`
	Action           Action          `json:"recommendation"`
	Reason           string          `json:"reason"`
	DaysLive         int             `json:"days_live"`
	EstimatedRevenue decimal.Decimal `json:"estimated_revenue"`
	BreakEven        bool            `json:"break_even"`
}

// stats is the per-test snapshot the rules see.
type stats struct {
	DaysLive   int
	MoneySpent decimal.Decimal
	SalesCount int
	BreakEven  bool
}

// rule is one (predicate, outcome) pair. The table is evaluated in order
// and the first match wins, so overlapping predicates are resolved by
// position, not by specificity.
type rule struct {
	name   string
	when   func(s stats) bool
	action Action
	reason string
}

type Monitor struct {
	Config config.LiveTestConfig
	rules  []rule
}

func NewMonitor(cfg config.LiveTestConfig) *Monitor {
	killSpend := decimal.NewFromFloat(cfg.KillSpendUSD)
	return &Monitor{
		Config: cfg,
		rules: []rule{
			{
				name:   "no_sales_timeout",
				when:   func(s stats) bool { return s.DaysLive >= cfg.KillAfterDays && s.SalesCount == 0 },
				action: ActionKill,
				reason: fmt.Sprintf("No sales after %d days", cfg.KillAfterDays),
			},
			{
				name:   "spend_over_threshold",
				when:   func(s stats) bool { return s.MoneySpent.GreaterThan(killSpend) && !s.BreakEven },
				action: ActionKill,
				reason: "Cost exceeds margin threshold",
			},
			{
				name:   "profitable_trend",
				when:   func(s stats) bool { return s.BreakEven && s.SalesCount >= cfg.ScaleMinSales },
				action: ActionScale,
				reason: "Profitable trend detected",
			},
			{
				name:   "low_velocity",
				when:   func(s stats) bool { return s.DaysLive >= cfg.PauseAfterDays && s.SalesCount < cfg.PauseMaxSales },
				action: ActionPause,
				reason: "Low sales velocity - consider pausing",
			},
			{
				name:   "default",
				when:   func(s stats) bool { return true },
				action: ActionContinue,
				reason: "Keep monitoring",
			},
		},
	}
}

// Evaluate recomputes a recommendation for every test against now. Input
// order is preserved.
func (m *Monitor) Evaluate(tests []models.LiveTest, now time.Time) []Recommendation {
	out := make([]Recommendation, 0, len(tests))
	for _, t := range tests {
		out = append(out, m.EvaluateOne(t, now))
	}
	return out
}

func (m *Monitor) EvaluateOne(t models.LiveTest, now time.Time) Recommendation {
	revenue := decimal.NewFromFloat(m.Config.AvgProfitPerSaleUSD).
		Mul(decimal.NewFromInt(int64(t.SalesCount)))
	s := stats{
		DaysLive:   DaysLive(t.StartDate, now),
		MoneySpent: t.MoneySpent,
		SalesCount: t.SalesCount,
		BreakEven:  revenue.GreaterThanOrEqual(t.MoneySpent),
	}
	for _, r := range m.rules {
		if !r.when(s) {
			continue
		}
		return Recommendation{
			TestID:           t.ID,
			Action:           r.action,
			Reason:           r.reason,
			DaysLive:         s.DaysLive,
			EstimatedRevenue: revenue,
			BreakEven:        s.BreakEven,
		}
	}
	// Unreachable: the table ends with an always-true rule.
	return Recommendation{TestID: t.ID, Action: ActionContinue, Reason: "Keep monitoring", DaysLive: s.DaysLive, EstimatedRevenue: revenue, BreakEven: s.BreakEven}
}

// DaysLive is floor((now - start) / 24h), never negative.
func DaysLive(start, now time.Time) int {
	if now.Before(start) {
		return 0
	}
	return int(now.Sub(start).Hours() / 24)
}
