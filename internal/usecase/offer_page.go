package usecase

import (
	"bytes"
	"fmt"
	"html/template"

	"MoneyLoop/internal/domain/models"
)

// offerPageTemplate renders the single-file landing page that the
// publish and deploy stages ship. html/template escapes every value,
// so signal-derived text cannot inject markup.
var offerPageTemplate = template.Must(template.New("offer").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body{font-family:system-ui,sans-serif;max-width:720px;margin:40px auto;padding:0 20px;color:#1a1a1a;line-height:1.6}
h1{font-size:2rem;margin-bottom:.25rem}
.price{font-size:1.4rem;font-weight:700;color:#0a7d36}
.cta{display:inline-block;margin:24px 0;padding:14px 28px;background:#0a7d36;color:#fff;border-radius:8px;text-decoration:none;font-weight:600}
ul{padding-left:20px}
footer{margin-top:48px;font-size:.8rem;color:#888}
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p><strong>For {{.Audience}}.</strong> {{.Problem}}</p>
<p>{{.Solution}}</p>
{{if .Price}}<p class="price">{{.Price}}</p>{{end}}
<a class="cta" href="#contact">Get the pilot</a>
{{if .Checklist}}<h2>What happens next</h2>
<ul>{{range .Checklist}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{if .Evidence}}<h2>Why now</h2>
<ul>{{range .Evidence}}<li>{{.}}</li>{{end}}</ul>{{end}}
<footer id="contact">Run {{.RunID}} · generated {{.GeneratedAt}}</footer>
</body>
</html>
`))

type offerPageData struct {
	Title       string
	Audience    string
	Problem     string
	Solution    string
	Price       string
	Checklist   []string
	Evidence    []string
	RunID       string
	GeneratedAt string
}

// RenderOfferPage builds the landing page HTML for a finished run.
// It requires a top opportunity.
func RenderOfferPage(report *models.RunReport) (string, error) {
	if report == nil || report.TopOpportunity == nil {
		return "", fmt.Errorf("render offer page: no top opportunity")
	}
	top := report.TopOpportunity

	data := offerPageData{
		Title:       top.Title,
		Audience:    top.Audience,
		Problem:     top.Problem,
		Solution:    top.Solution,
		Price:       top.SuggestedPrice,
		Checklist:   report.ExecutionChecklist,
		Evidence:    top.Evidence,
		RunID:       report.RunID,
		GeneratedAt: report.GeneratedAt.Format("2006-01-02 15:04 UTC"),
	}
	if data.Audience == "" {
		data.Audience = report.Input.Market
	}

	var buf bytes.Buffer
	if err := offerPageTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render offer page: %w", err)
	}
	return buf.String(), nil
}
