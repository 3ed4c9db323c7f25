// Package intent maps a raw user utterance to one of the fixed set of
// intents. Keyword tables and every scoring constant live in Config so the
// policy can be tuned without a rebuild; the defaults match what the
// product shipped with, nobody has claimed they are optimal.
package intent

import (
	"sort"
	"strings"
	"unicode"

	"github.com/samber/lo"

	"github.com/insightpilot/insightpilot/pkg/types"
)

type Keyword struct {
	Word   string  `toml:"word" json:"word"`
	Weight float64 `toml:"weight" json:"weight"`
}

type Config struct {
	// Keywords per intent. The default table covers the research-assistant
	// vocabulary; deployments can extend it from config.
	Keywords map[types.Intent][]Keyword `toml:"keywords"`

	PositionalBonus   float64 `toml:"positional_bonus"`    // extra weight fraction for matches in the first PositionalWindow chars
	PositionalWindow  int     `toml:"positional_window"`   // default 10
	PartialWeight     float64 `toml:"partial_weight"`      // weight multiplier for sub-word matches
	PartialDiscount   float64 `toml:"partial_discount"`    // confidence discount when only partials contributed
	MultiKeywordBoost float64 `toml:"multi_keyword_boost"` // multiplicative boost per extra matched keyword
	AmbiguityRatio    float64 `toml:"ambiguity_ratio"`     // runner-up/winner ratio that triggers the ambiguity discount
	AmbiguityDiscount float64 `toml:"ambiguity_discount"`
	ConfidenceFloor   float64 `toml:"confidence_floor"`
	AlternativeDamp   float64 `toml:"alternative_damp"` // damping applied to reported alternatives
}

func DefaultConfig() Config {
	return Config{
		Keywords:          defaultKeywords(),
		PositionalBonus:   0.2,
		PositionalWindow:  10,
		PartialWeight:     0.6,
		PartialDiscount:   0.2,
		MultiKeywordBoost: 1.15,
		AmbiguityRatio:    0.7,
		AmbiguityDiscount: 0.1,
		ConfidenceFloor:   0.1,
		AlternativeDamp:   0.5,
	}
}

func defaultKeywords() map[types.Intent][]Keyword {
	return map[types.Intent][]Keyword{
		types.INTENT_RETRIEVE_INSIGHTS: {
			{Word: "insight", Weight: 1.0},
			{Word: "insights", Weight: 1.0},
			{Word: "learning", Weight: 0.7},
			{Word: "finding", Weight: 0.8},
			{Word: "findings", Weight: 0.8},
			{Word: "what do we know", Weight: 0.9},
			{Word: "research says", Weight: 0.7},
		},
		types.INTENT_RETRIEVE_METRICS: {
			{Word: "metric", Weight: 1.0},
			{Word: "metrics", Weight: 1.0},
			{Word: "kpi", Weight: 1.0},
			{Word: "measure", Weight: 0.7},
			{Word: "conversion", Weight: 0.6},
			{Word: "retention", Weight: 0.6},
			{Word: "number", Weight: 0.5},
		},
		types.INTENT_RETRIEVE_JOBS: {
			{Word: "job to be done", Weight: 1.0},
			{Word: "jobs to be done", Weight: 1.0},
			{Word: "jtbd", Weight: 1.0},
			{Word: "job", Weight: 0.6},
			{Word: "jobs", Weight: 0.6},
			{Word: "customer goal", Weight: 0.8},
			{Word: "user need", Weight: 0.7},
		},
		types.INTENT_GENERATE_QUESTIONS: {
			{Word: "how might we", Weight: 1.0},
			{Word: "hmw", Weight: 1.0},
			{Word: "generate questions", Weight: 1.0},
			{Word: "question", Weight: 0.6},
			{Word: "questions", Weight: 0.6},
			{Word: "brainstorm", Weight: 0.7},
			{Word: "reframe", Weight: 0.7},
		},
		types.INTENT_CREATE_SOLUTIONS: {
			{Word: "solution", Weight: 1.0},
			{Word: "solutions", Weight: 1.0},
			{Word: "solve", Weight: 0.8},
			{Word: "idea", Weight: 0.6},
			{Word: "ideas", Weight: 0.6},
			{Word: "create", Weight: 0.5},
			{Word: "concept", Weight: 0.6},
		},
		// general_exploration is the fallback, it carries no keywords.
	}
}

type Match struct {
	Keyword string  `json:"keyword"`
	Weight  float64 `json:"weight"`
	Exact   bool    `json:"exact"`
	Index   int     `json:"index"`
}

type Alternative struct {
	Intent     types.Intent `json:"intent"`
	Confidence float64      `json:"confidence"`
}

type Result struct {
	Intent       types.Intent  `json:"intent"`
	Confidence   float64       `json:"confidence"`
	Matches      []Match       `json:"matches"`
	Alternatives []Alternative `json:"alternatives,omitempty"`
}

type Classifier struct {
	cfg Config
}

func NewClassifier(cfg Config) *Classifier {
	if len(cfg.Keywords) == 0 {
		cfg = DefaultConfig()
	}
	return &Classifier{cfg: cfg}
}

// Classify never fails: on no match or internal trouble it returns the
// default intent at the confidence floor with no evidence.
func (c *Classifier) Classify(utterance string) Result {
	fallback := Result{
		Intent:     types.INTENT_GENERAL_EXPLORATION,
		Confidence: c.cfg.ConfidenceFloor,
	}

	normalized := Normalize(utterance)
	if normalized == "" {
		return fallback
	}

	type scored struct {
		intent     types.Intent
		score      float64
		matches    []Match
		exactCount int
	}

	var candidates []scored
	for intent, keywords := range c.cfg.Keywords {
		s := c.scoreIntent(normalized, keywords)
		if s.score <= 0 {
			continue
		}
		candidates = append(candidates, scored{
			intent:     intent,
			score:      s.score,
			matches:    s.matches,
			exactCount: s.exactCount,
		})
	}

	if len(candidates) == 0 {
		return fallback
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		// deterministic tie-break
		return candidates[i].intent < candidates[j].intent
	})

	winner := candidates[0]

	// Normalize the top score into [0,1]. The divisor is the best score an
	// intent could reach on its own table, so a single strong keyword still
	// lands well under full confidence.
	maxPossible := c.maxScore(winner.intent)
	confidence := winner.score / maxPossible
	if confidence > 1 {
		confidence = 1
	}

	if winner.exactCount == 0 {
		confidence *= 1 - c.cfg.PartialDiscount
	}
	if len(candidates) > 1 && candidates[1].score >= winner.score*c.cfg.AmbiguityRatio {
		confidence *= 1 - c.cfg.AmbiguityDiscount
	}
	if confidence < c.cfg.ConfidenceFloor {
		confidence = c.cfg.ConfidenceFloor
	}

	result := Result{
		Intent:     winner.intent,
		Confidence: confidence,
		Matches:    winner.matches,
	}

	for _, alt := range lo.Slice(candidates, 1, 3) {
		altConf := alt.score / maxPossible * c.cfg.AlternativeDamp
		if altConf > confidence {
			altConf = confidence
		}
		result.Alternatives = append(result.Alternatives, Alternative{
			Intent:     alt.intent,
			Confidence: altConf,
		})
	}

	return result
}

type intentScore struct {
	score      float64
	matches    []Match
	exactCount int
}

func (c *Classifier) scoreIntent(normalized string, keywords []Keyword) intentScore {
	var out intentScore

	// Exact substring matches first, at full weight.
	for _, kw := range keywords {
		idx := strings.Index(normalized, kw.Word)
		if idx < 0 {
			continue
		}
		w := kw.Weight
		if idx < c.cfg.PositionalWindow {
			w += kw.Weight * c.cfg.PositionalBonus
		}
		out.score += w
		out.exactCount++
		out.matches = append(out.matches, Match{Keyword: kw.Word, Weight: w, Exact: true, Index: idx})
	}

	// Only when nothing matched exactly, fall back to sub-word matches at
	// reduced weight.
	if out.exactCount == 0 {
		for _, kw := range keywords {
			for _, part := range strings.Fields(kw.Word) {
				if len(part) < 4 {
					continue
				}
				stem := part[:len(part)-1]
				idx := strings.Index(normalized, stem)
				if idx < 0 {
					continue
				}
				w := kw.Weight * c.cfg.PartialWeight
				out.score += w
				out.matches = append(out.matches, Match{Keyword: kw.Word, Weight: w, Exact: false, Index: idx})
				break
			}
		}
	}

	// Multiplicative boost when more than one keyword contributed.
	if n := len(out.matches); n > 1 {
		boost := 1 + (c.cfg.MultiKeywordBoost-1)*float64(n-1)
		if boost > c.cfg.MultiKeywordBoost*c.cfg.MultiKeywordBoost {
			boost = c.cfg.MultiKeywordBoost * c.cfg.MultiKeywordBoost
		}
		out.score *= boost
	}

	return out
}

func (c *Classifier) maxScore(intent types.Intent) float64 {
	var max float64
	for _, kw := range c.cfg.Keywords[intent] {
		max += kw.Weight * (1 + c.cfg.PositionalBonus)
	}
	if max <= 0 {
		return 1
	}
	return max
}

// Normalize lowercases, strips punctuation and collapses whitespace.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			// punctuation becomes a separator so "drop-off" matches "drop off"
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
