package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"MoneyLoop/internal/domain/models"
	domsvc "MoneyLoop/internal/domain/service"
	xhttp "MoneyLoop/pkg/http"
	"MoneyLoop/pkg/util"
)

// Synthesizer implements domain/service.Synthesizer against an OpenAI
// compatible chat-completion endpoint in strict JSON mode. Any failure
// is returned to the caller, which falls back to local heuristics.
type Synthesizer struct {
	apiKey  string
	model   string
	baseURL string
	client  *xhttp.Client
}

// New creates an LLM synthesizer. Model defaults to gpt-4o-mini.
func New(apiKey, model, baseURL string, timeout time.Duration) *Synthesizer {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Synthesizer{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat respFormat    `json:"response_format"`
	Temperature    float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Synthesize asks the model for opportunities and ad drafts as strict JSON.
func (s *Synthesizer) Synthesize(ctx context.Context, input models.LoopInput, signals []models.Signal) (*domsvc.SynthesisResult, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("openai api key not configured")
	}

	var cr chatResponse
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    s.baseURL + "/chat/completions",
		Headers: map[string]string{
			"Authorization": "Bearer " + s.apiKey,
			"Content-Type":  "application/json",
		},
		Body: chatRequest{
			Model: s.model,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: buildUserPrompt(input, signals)},
			},
			ResponseFormat: respFormat{Type: "json_object"},
			Temperature:    0.4,
		},
	}, &cr)
	if err != nil {
		return nil, fmt.Errorf("openai synthesis: %w", err)
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("openai synthesis: empty choices")
	}

	return parsePayload(cr.Choices[0].Message.Content)
}

const systemPrompt = "You are a market analyst. Respond with a single JSON object " +
	`{"opportunities":[...],"adDrafts":[...],"monetizationNotes":"..."}. ` +
	"Each opportunity has id, title, problem, audience, solution, mvp, suggestedPrice, " +
	"painScore, willingnessToPay, speedToBuild, competitionGap (0-100) and evidence. " +
	"Each ad draft has id, channel, headline, body, cta, linkedOpportunityId."

func buildUserPrompt(input models.LoopInput, signals []models.Signal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Market: %s\nKeywords: %s\nChannels: %s\nWeekly budget: %.0f\n\nSignals:\n",
		input.Market, strings.Join(input.Keywords, ", "), strings.Join(input.Channels, ", "), input.Budget)
	limit := len(signals)
	if limit > 12 {
		limit = 12
	}
	for _, sig := range signals[:limit] {
		fmt.Fprintf(&b, "- [%s] %s (popularity %d, comments %d)\n", sig.Source, sig.Title, sig.Popularity, sig.Comments)
	}
	return b.String()
}

// parsePayload decodes the model's JSON body entry by entry so one
// malformed element drops that element, not the whole response.
func parsePayload(content string) (*domsvc.SynthesisResult, error) {
	var payload struct {
		Opportunities     []json.RawMessage `json:"opportunities"`
		AdDrafts          []json.RawMessage `json:"adDrafts"`
		MonetizationNotes string            `json:"monetizationNotes"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("openai payload: %w", err)
	}

	res := &domsvc.SynthesisResult{MonetizationNotes: payload.MonetizationNotes}
	for _, raw := range payload.Opportunities {
		if opp, ok := coerceOpportunity(raw); ok {
			res.Opportunities = append(res.Opportunities, opp)
		}
	}
	for _, raw := range payload.AdDrafts {
		if draft, ok := coerceAdDraft(raw); ok {
			res.AdDrafts = append(res.AdDrafts, draft)
		}
	}
	return res, nil
}

type flexOpportunity struct {
	ID               flexString   `json:"id"`
	Title            flexString   `json:"title"`
	Problem          flexString   `json:"problem"`
	Audience         flexString   `json:"audience"`
	Solution         flexString   `json:"solution"`
	MVP              flexString   `json:"mvp"`
	SuggestedPrice   flexString   `json:"suggestedPrice"`
	PainScore        flexInt      `json:"painScore"`
	WillingnessToPay flexInt      `json:"willingnessToPay"`
	SpeedToBuild     flexInt      `json:"speedToBuild"`
	CompetitionGap   flexInt      `json:"competitionGap"`
	Evidence         []flexString `json:"evidence"`
}

func coerceOpportunity(raw json.RawMessage) (models.Opportunity, bool) {
	var f flexOpportunity
	if err := json.Unmarshal(raw, &f); err != nil {
		return models.Opportunity{}, false
	}
	if f.Title == "" && f.Problem == "" {
		return models.Opportunity{}, false
	}
	id := string(f.ID)
	if id == "" {
		id = util.Slugify(string(f.Title))
	}
	evidence := make([]string, 0, len(f.Evidence))
	for _, e := range f.Evidence {
		if e != "" {
			evidence = append(evidence, string(e))
		}
	}
	return models.Opportunity{
		ID:               id,
		Title:            string(f.Title),
		Problem:          string(f.Problem),
		Audience:         string(f.Audience),
		Solution:         string(f.Solution),
		MVP:              string(f.MVP),
		SuggestedPrice:   string(f.SuggestedPrice),
		PainScore:        int(f.PainScore),
		WillingnessToPay: int(f.WillingnessToPay),
		SpeedToBuild:     int(f.SpeedToBuild),
		CompetitionGap:   int(f.CompetitionGap),
		Evidence:         evidence,
	}, true
}

type flexAdDraft struct {
	ID                  flexString `json:"id"`
	Channel             flexString `json:"channel"`
	Headline            flexString `json:"headline"`
	Body                flexString `json:"body"`
	CTA                 flexString `json:"cta"`
	LinkedOpportunityID flexString `json:"linkedOpportunityId"`
}

func coerceAdDraft(raw json.RawMessage) (models.AdDraft, bool) {
	var f flexAdDraft
	if err := json.Unmarshal(raw, &f); err != nil {
		return models.AdDraft{}, false
	}
	if f.Headline == "" || f.Body == "" {
		return models.AdDraft{}, false
	}
	return models.AdDraft{
		ID:                  string(f.ID),
		Channel:             strings.ToLower(string(f.Channel)),
		Headline:            string(f.Headline),
		Body:                string(f.Body),
		CTA:                 string(f.CTA),
		LinkedOpportunityID: string(f.LinkedOpportunityID),
	}, true
}

// flexString accepts strings and numbers; anything else decodes empty.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexString(strconv.FormatFloat(n, 'f', -1, 64))
		return nil
	}
	*f = ""
	return nil
}

// flexInt accepts numbers and numeric strings; anything else decodes zero.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexInt(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*f = flexInt(v)
			return nil
		}
	}
	*f = 0
	return nil
}

var _ domsvc.Synthesizer = (*Synthesizer)(nil)
