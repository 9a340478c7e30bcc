package verdict

import (
	"regexp"
)

// TriggerRule scores one class of emotional-trigger wording in a listing
// title. Rules are additive on top of a small base score and the total is
// clamped to [0,100].
type TriggerRule struct {
	Label    string
	Patterns []string
	Weight   int
}

const triggerBaseScore = 10

func DefaultTriggerRules() []TriggerRule {
	return []TriggerRule{
		{
			Label: "urgency",
			Patterns: []string{
				`(?i)\b(limited|last chance|hurry|today only|flash sale|while supplies last)\b`,
				`(?i)\b(deal|sale|discount|clearance)\b`,
			},
			Weight: 30,
		},
		{
			Label: "novelty",
			Patterns: []string{
				`(?i)\b(new|latest|upgraded|innovative|next.?gen|breakthrough)\b`,
				`(?i)\b20\d{2}\b`,
			},
			Weight: 25,
		},
		{
			Label: "superlative",
			Patterns: []string{
				`(?i)\b(best|ultimate|perfect|amazing|magic|revolutionary)\b`,
				`(?i)\b(premium|pro|deluxe|luxury)\b`,
			},
			Weight: 20,
		},
		{
			Label: "social_proof",
			Patterns: []string{
				`(?i)\b(viral|trending|as seen on|bestseller|top rated)\b`,
			},
			Weight: 25,
		},
	}
}

// TriggerScorerFromRules compiles a rule set into a scorer closure. Each rule
// contributes its weight at most once per title. Compilation happens here so
// the returned scorer is safe for concurrent use; invalid patterns are
// skipped. Any replacement scorer works as long as it is monotonic in trigger
// wording and stays within [0,100] after clamping.
func TriggerScorerFromRules(rules []TriggerRule) func(title string) int {
	type compiledRule struct {
		weight int
		res    []*regexp.Regexp
	}
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		cr := compiledRule{weight: rule.Weight}
		for _, raw := range rule.Patterns {
			re, err := regexp.Compile(raw)
			if err != nil {
				continue
			}
			cr.res = append(cr.res, re)
		}
		if len(cr.res) > 0 {
			compiled = append(compiled, cr)
		}
	}
	return func(title string) int {
		score := triggerBaseScore
		for _, cr := range compiled {
			for _, re := range cr.res {
				if re.MatchString(title) {
					score += cr.weight
					break
				}
			}
		}
		return clampScore(score)
	}
}
