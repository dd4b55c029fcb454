package models

// Opportunity is a scored business-idea candidate derived from signals
// or supplied by an external synthesizer.
//
// The four sub-scores use zero to mean "not supplied": synthesizers
// omit a sub-score by leaving it at 0, and the scorer substitutes its
// per-dimension default before clamping to [1,100].
type Opportunity struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Problem          string   `json:"problem"`
	Audience         string   `json:"audience"`
	Solution         string   `json:"solution"`
	MVP              string   `json:"mvp"`
	SuggestedPrice   string   `json:"suggestedPrice"`
	PainScore        int      `json:"painScore"`
	WillingnessToPay int      `json:"willingnessToPay"`
	SpeedToBuild     int      `json:"speedToBuild"`
	CompetitionGap   int      `json:"competitionGap"`
	Evidence         []string `json:"evidence"`
	Score            float64  `json:"score"`
}

// ScoreWeights controls the weighted sum over the four sub-scores.
type ScoreWeights struct {
	Pain        float64 `json:"pain"`
	WTP         float64 `json:"wtp"`
	Speed       float64 `json:"speed"`
	Competition float64 `json:"competition"`
}

// DefaultScoreWeights is the production weighting.
var DefaultScoreWeights = ScoreWeights{Pain: 0.34, WTP: 0.30, Speed: 0.20, Competition: 0.16}

// AdDraft is promotional copy tied to one opportunity and channel.
// Drafts with an empty headline or body are discarded.
type AdDraft struct {
	ID                  string `json:"id"`
	Channel             string `json:"channel"`
	Headline            string `json:"headline"`
	Body                string `json:"body"`
	CTA                 string `json:"cta"`
	LinkedOpportunityID string `json:"linkedOpportunityId"`
}
