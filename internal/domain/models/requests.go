package models

// Requests for money-loop HTTP endpoints. Defined in domain for consistency and reuse.

type LoopRequest struct {
	Market       string     `json:"market"`
	Keywords     StringList `json:"keywords"`
	Channels     StringList `json:"channels"`
	Budget       *float64   `json:"budget"`
	Limit        int        `json:"limit" default:"24" validate:"gte=1,lte=100"`
	RunID        string     `json:"runId"`
	OpenAIAPIKey string     `json:"openAiApiKey"`
	OpenAIModel  string     `json:"openAiModel"`
}

type TokenRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Plan       string `json:"plan" default:"free" validate:"oneof=free starter pro admin"`
	TTLSeconds int    `json:"ttlSeconds"`
}

type AutopilotRequest struct {
	Mode         string `query:"mode" json:"mode"`
	Budget       string `query:"budget" json:"budget"`
	DryRun       string `query:"dryRun" json:"dryRun"`
	AutoDiscover string `query:"autoDiscover" json:"autoDiscover"`
	Publish      string `query:"publish" json:"publish"`
	VercelDeploy string `query:"vercelDeploy" json:"vercelDeploy"`
	Promotion    string `query:"promotion" json:"promotion"`
}
