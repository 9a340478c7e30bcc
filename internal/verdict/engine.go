// Package verdict turns sparse marketplace signals (price, rating, review
// count, title) into an actionable test/skip decision without ground-truth
// cost data. Costs are heuristic fractions of the listing price; thresholds
// are tunables, their relative ordering is the contract.
package verdict

import (
	"strings"

	"github.com/shopspring/decimal"

	"dropscout/internal/config"
	"dropscout/internal/risk"
	"dropscout/internal/scenario"
	"dropscout/internal/scraper"
)

// Demand levels.
const (
	DemandLow    = "low"
	DemandMedium = "medium"
	DemandHigh   = "high"
)

// Classification values, mirrored by models.Verdict.
const (
	ClassificationTest = "test"
	ClassificationSkip = "skip"
)

// Result is one analysis outcome for one listing. Immutable once built;
// re-analysis produces a fresh Result.
type Result struct {
	Classification string
	RiskLevel      risk.Level
	RiskReason     string
	DemandLevel    string

	SaturationScore       int
	EmotionalTriggerScore int
	ConfidenceScore       int

	Scenarios         scenario.Set
	ProfitWorstCase   decimal.Decimal
	ProfitAverageCase decimal.Decimal
	ProfitBestCase    decimal.Decimal
	EstimatedCost     decimal.Decimal
	EstimatedShipping decimal.Decimal

	// MoneySaved is the test budget a skip verdict spares; zero for test.
	MoneySaved decimal.Decimal

	CommonComplaints []string
	FailureReasons   []string
	BestAudience     string
	AvoidAudience    string
}

type Engine struct {
	Config config.VerdictConfig
	Risk   *risk.Evaluator

	// TriggerScorer is the pluggable emotional-trigger heuristic. It must be
	// safe for concurrent use; outputs are clamped to [0,100].
	TriggerScorer func(title string) int

	testBudget decimal.Decimal
	returnRate decimal.Decimal
}

func NewEngine(cfg config.VerdictConfig, riskCfg config.RiskConfig, scenarioCfg config.ScenarioConfig) *Engine {
	rate := decimal.NewFromFloat(scenarioCfg.DefaultReturnRate)
	if !rate.IsPositive() {
		rate = scenario.DefaultReturnRate
	}
	return &Engine{
		Config:        cfg,
		Risk:          &risk.Evaluator{Config: riskCfg},
		TriggerScorer: TriggerScorerFromRules(DefaultTriggerRules()),
		testBudget:    decimal.NewFromFloat(riskCfg.DefaultTestBudgetUSD),
		returnRate:    rate,
	}
}

// Evaluate scores one scraped listing. It returns nil only when the listing
// has no title at all; every other malformed or missing field degrades the
// confidence score instead of aborting. Same listing in, bit-identical
// Result out: there is no randomness and no clock in here.
func (e *Engine) Evaluate(listing scraper.RawListing) *Result {
	title := strings.TrimSpace(listing.Title)
	if title == "" {
		return nil
	}

	saturation := saturationScore(listing.ReviewCount)
	demandLevel := demandLevel(listing.Rating, listing.ReviewCount)
	trigger := clampScore(e.TriggerScorer(title))
	confidence := e.confidenceScore(listing)

	price := decimal.Zero
	if listing.Price != nil {
		price = *listing.Price
	}
	estCost := price.Mul(decimal.NewFromFloat(e.Config.CostFraction)).Round(2)
	estShipping := price.Mul(decimal.NewFromFloat(e.Config.ShippingFraction)).Round(2)

	set := scenario.CalculateScenarios(scenario.ProfitInputs{
		SellingPrice:  price,
		ProductCost:   estCost,
		ShippingCost:  estShipping,
		AdCostPerSale: decimal.NewFromFloat(e.Config.AdCostPerSaleUSD),
		ReturnRate:    e.returnRate,
	})

	assessment := e.Risk.CalculateRiskOfRuin(e.testBudget, set.Base.NetProfit, 0)

	classification := ClassificationSkip
	if assessment.ShouldTest && confidence >= e.Config.MinConfidence {
		classification = ClassificationTest
	}
	moneySaved := decimal.Zero
	if classification == ClassificationSkip {
		moneySaved = e.testBudget
	}

	res := &Result{
		Classification:        classification,
		RiskLevel:             assessment.Level,
		RiskReason:            assessment.Reason,
		DemandLevel:           demandLevel,
		SaturationScore:       saturation,
		EmotionalTriggerScore: trigger,
		ConfidenceScore:       confidence,
		Scenarios:             set,
		ProfitWorstCase:       set.Bear.NetProfit,
		ProfitAverageCase:     set.Base.NetProfit,
		ProfitBestCase:        set.Bull.NetProfit,
		EstimatedCost:         estCost,
		EstimatedShipping:     estShipping,
		MoneySaved:            moneySaved,
	}
	res.CommonComplaints = complaints(listing, saturation, set)
	if classification == ClassificationSkip {
		res.FailureReasons = failureReasons(assessment, confidence, e.Config.MinConfidence, saturation)
	}
	res.BestAudience, res.AvoidAudience = audiences(trigger, demandLevel)
	return res
}

// saturationScore is a banded proxy for competition: more reviews means more
// sellers already serving the niche. Monotone non-decreasing in reviewCount.
func saturationScore(reviewCount int) int {
	switch {
	case reviewCount <= 0:
		return 5
	case reviewCount < 50:
		return 15
	case reviewCount < 200:
		return 30
	case reviewCount < 500:
		return 45
	case reviewCount < 1000:
		return 60
	case reviewCount < 5000:
		return 75
	case reviewCount < 20000:
		return 88
	default:
		return 95
	}
}

// demandLevel uses the rating x review-count interaction as a rough
// popularity signal. A missing rating counts as zero popularity.
func demandLevel(rating *float64, reviewCount int) string {
	if rating == nil || reviewCount <= 0 {
		return DemandLow
	}
	popularity := *rating * float64(reviewCount)
	switch {
	case popularity >= 2000:
		return DemandHigh
	case popularity >= 300:
		return DemandMedium
	default:
		return DemandLow
	}
}

// confidenceScore starts from full confidence and subtracts one completeness
// penalty per missing field. Title is not penalized here: a titleless
// listing never reaches scoring.
func (e *Engine) confidenceScore(listing scraper.RawListing) int {
	score := 100
	if listing.Price == nil || !listing.Price.IsPositive() {
		score -= e.Config.MissingFieldPenalty
	}
	if listing.Rating == nil {
		score -= e.Config.MissingFieldPenalty
	}
	if listing.ReviewCount <= 0 {
		score -= e.Config.ThinReviewPenalty
	}
	return clampScore(score)
}

func complaints(listing scraper.RawListing, saturation int, set scenario.Set) []string {
	var out []string
	if saturation >= 60 {
		out = append(out, "market already crowded with established listings")
	}
	if listing.Rating != nil && *listing.Rating > 0 && *listing.Rating < 3.5 {
		out = append(out, "buyers report quality problems at this rating level")
	}
	if set.Base.ProfitMargin.LessThan(decimal.NewFromInt(15)) {
		out = append(out, "thin margin leaves no room for ad cost swings")
	}
	if listing.ReviewCount <= 0 {
		out = append(out, "no review history to validate real demand")
	}
	return out
}

func failureReasons(a risk.Assessment, confidence, minConfidence, saturation int) []string {
	out := []string{a.Reason}
	if confidence < minConfidence {
		out = append(out, "listing data too incomplete to trust the signal")
	}
	if saturation >= 75 {
		out = append(out, "saturation too high for a new entrant")
	}
	return out
}

func audiences(trigger int, demand string) (best, avoid string) {
	switch {
	case trigger >= 60:
		best = "impulse buyers responsive to urgency and novelty messaging"
		avoid = "comparison shoppers who research reviews before buying"
	case demand == DemandHigh:
		best = "mainstream buyers already searching for this product category"
		avoid = "early adopters looking for something nobody else has"
	case demand == DemandMedium:
		best = "niche communities where the product solves a specific problem"
		avoid = "broad cold audiences with no category awareness"
	default:
		best = "narrow interest groups reached through targeted creatives"
		avoid = "mass-market audiences; demand signal is too weak"
	}
	return best, avoid
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
