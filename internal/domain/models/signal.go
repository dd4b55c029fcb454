package models

import "strings"

// Signal is one normalized external demand data point fetched from a
// search source (Hacker News story, Reddit post).
type Signal struct {
	ID         string  `json:"id"`
	Source     string  `json:"source"`
	Keyword    string  `json:"keyword"`
	Title      string  `json:"title"`
	Summary    string  `json:"summary"`
	URL        string  `json:"url"`
	Popularity int     `json:"popularity"`
	Comments   int     `json:"comments"`
	CreatedAt  string  `json:"createdAt"`
	Relevance  float64 `json:"relevance"`
	Rank       float64 `json:"rank"`
}

// DedupeKey identifies the same item fetched under different keyword
// queries. URL wins over title; first occurrence is kept.
func (s *Signal) DedupeKey() string {
	if s.URL != "" {
		return strings.ToLower(s.URL)
	}
	return strings.ToLower(s.Title)
}

// Text returns the searchable text of the signal.
func (s *Signal) Text() string {
	return strings.ToLower(s.Title + " " + s.Summary)
}

// MarketCandidate is a transient clustering result produced during
// autopilot market discovery. The highest-scoring candidate becomes
// the run's effective market.
type MarketCandidate struct {
	Market   string   `json:"market"`
	Score    float64  `json:"score"`
	Keywords []string `json:"keywords"`
	Evidence []string `json:"evidence"`
}
