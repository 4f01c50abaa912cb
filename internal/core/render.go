package core

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"unicode/utf8"
)

const gridRowsTemplate = `{{define "rows"}}
{{- range $i, $r := .}}
    <tr{{if even $i}} style="background-color: #f9f9f9;"{{end}}>
      <td style="padding: 10px; font-weight: bold; border: 1px solid #ddd; width: 180px;">{{$r.Label}}</td>
      <td style="padding: 10px; border: 1px solid #ddd;">{{$r.Value}}</td>
    </tr>
{{- end}}
{{end}}`

var templateFuncs = template.FuncMap{
	"even": func(i int) bool { return i%2 == 0 },
}

var investigationGridTmpl = template.Must(template.New("investigation").Funcs(templateFuncs).Parse(gridRowsTemplate + `
<table style="width: 100%; border-collapse: collapse; font-family: Arial, sans-serif; margin: 20px 0;">
  <thead>
    <tr style="background-color: #0052cc; color: white;">
      <th colspan="2" style="padding: 12px; text-align: left; font-size: 16px; border: 1px solid #ddd;">INVESTIGATION GRID</th>
    </tr>
  </thead>
  <tbody>
{{- template "rows" .Rows}}
    <tr style="background-color: #fff3cd;">
      <th colspan="2" style="padding: 12px; text-align: left; border: 1px solid #ddd; color: #856404;">RESOLUTION (To be filled by Base Ops)</th>
    </tr>
    <tr><td style="padding: 10px; font-weight: bold; border: 1px solid #ddd;">Action Taken</td><td style="padding: 10px; border: 1px solid #ddd;"></td></tr>
    <tr><td style="padding: 10px; font-weight: bold; border: 1px solid #ddd;">Outcome</td><td style="padding: 10px; border: 1px solid #ddd;"></td></tr>
  </tbody>
</table>
<div style="display: none;"><pre>{{.Block}}</pre></div>
`))

var completedGridTmpl = template.Must(template.New("completed").Funcs(templateFuncs).Parse(gridRowsTemplate + `
<table style="width: 100%; border-collapse: collapse; font-family: Arial, sans-serif; margin: 20px 0;">
  <thead>
    <tr style="background-color: #0052cc; color: white;">
      <th colspan="2" style="padding: 12px; text-align: left; font-size: 16px; border: 1px solid #ddd;">COMPLETED INVESTIGATION GRID</th>
    </tr>
  </thead>
  <tbody>
{{- template "rows" .Rows}}
    <tr style="background-color: #fff3cd;">
      <th colspan="2" style="padding: 12px; text-align: left; border: 1px solid #ddd; color: #856404;">RESOLUTION &amp; ANALYSIS</th>
    </tr>
{{- template "rows" .Resolution}}
    <tr>
      <td style="padding: 10px; font-weight: bold; border: 1px solid #ddd;">Confidence Score</td>
      <td style="{{.ScoreStyle}}">{{.Score}}% (Reasoning: {{.Reasoning}})</td>
    </tr>
  </tbody>
</table>
`))

var investigationDraftTmpl = template.Must(template.New("investigation-draft").Parse(`
<h3>Action Required: Flight Complaint Investigation</h3>
<p><strong>Complaint ID:</strong> {{.CaseID}}</p>
<p><strong>Status:</strong> WAITING_OPS</p>
<p><strong>Routing:</strong> {{.Route}}</p>
<h4>Original Complaint</h4>
<p style="background-color: #f9f9f9; padding: 10px; border-left: 4px solid #0052cc;">{{.Excerpt}}</p>
{{- if .AdverseWeather}}
<p style="color: #856404;"><strong>Note:</strong> departure weather was adverse ({{.Weather}}).</p>
{{- end}}
<hr style="border: 1px dashed #ccc; margin: 20px 0;">
{{.Grid}}
<hr style="border: 1px dashed #ccc; margin: 20px 0;">
<h3 style="color: #d9534f;">ACTION REQUIRED</h3>
<p><strong>Please fill in the RESOLUTION section of the grid above:</strong></p>
<ul>
  <li><strong>Action Taken:</strong> What action did the crew take?</li>
  <li><strong>Outcome:</strong> What was the final result or compensation?</li>
</ul>
<p><strong>Reply to this email</strong> with the updated grid. Keep the case tag in the subject.</p>
`))

var finalDraftTmpl = template.Must(template.New("final-draft").Parse(`
<p>Dear CX Team,</p>
<p>Base Ops has submitted their resolution for case {{.CaseID}}. The analysis is below.</p>
{{.Grid}}
<hr/>
<h4>Proposed Customer Response:</h4>
<div style="border-left: 3px solid #0052cc; font-style: italic; background-color: #f0f4f8; padding: 10px;">{{range .Response}}<p>{{.}}</p>{{end}}</div>
<p>System Recommendation: <b>{{.Recommendation}}</b></p>
`))

type gridRow struct {
	Label string
	Value string
}

func displayValue(v string) string {
	if v == "" {
		return nullValue
	}
	return v
}

func gridRows(g InvestigationGrid) []gridRow {
	rows := make([]gridRow, 0, len(gridFields))
	for _, f := range gridFields {
		rows = append(rows, gridRow{Label: f.label, Value: displayValue(f.get(&g))})
	}
	return rows
}

// RenderInvestigationGrid renders the grid as an HTML table followed by a
// hidden copy of the embedded block
func RenderInvestigationGrid(grid InvestigationGrid) (string, error) {
	grid = grid.Normalized()

	var buf bytes.Buffer
	err := investigationGridTmpl.Execute(&buf, struct {
		Rows  []gridRow
		Block string
	}{
		Rows:  gridRows(grid),
		Block: EncodeGridBlock(grid),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render investigation grid: %w", err)
	}
	return buf.String(), nil
}

// RenderCompletedGrid renders the investigation grid with the resolution and
// evaluation filled in. The score is coloured by its confidence band.
func RenderCompletedGrid(grid InvestigationGrid, resolution ResolutionGrid, eval Evaluation) (string, error) {
	grid = grid.Normalized()
	notFound := func(v string) string {
		if v == "" {
			return "Not Found"
		}
		return v
	}

	style := "padding: 10px; border: 1px solid #ddd; font-weight: bold; color: " + BandFor(eval.ConfidenceScore).Colour() + ";"

	var buf bytes.Buffer
	err := completedGridTmpl.Execute(&buf, struct {
		Rows       []gridRow
		Resolution []gridRow
		ScoreStyle template.CSS
		Score      int
		Reasoning  string
	}{
		Rows: gridRows(grid),
		Resolution: []gridRow{
			{Label: "Action Taken", Value: notFound(resolution.ActionTaken)},
			{Label: "Outcome", Value: notFound(resolution.Outcome)},
			{Label: "Agent Summary", Value: displayValue(eval.AgentSummary)},
		},
		ScoreStyle: template.CSS(style),
		Score:      eval.ConfidenceScore,
		Reasoning:  displayValue(eval.AgentReasoning),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render completed grid: %w", err)
	}
	return buf.String(), nil
}

const excerptLimit = 500

func excerpt(body string) string {
	if len(body) <= excerptLimit {
		return body
	}
	cut := body[:excerptLimit]
	for !utf8.ValidString(cut) && len(cut) > 0 {
		cut = cut[:len(cut)-1]
	}
	return cut + "..."
}

// InvestigationSubject is the subject of the draft sent to base ops
func InvestigationSubject(subject, pnr, caseID string) string {
	return fmt.Sprintf("[ACTION REQUIRED] Investigation Request: %s - PNR: %s [Case: %s]",
		subject, displayPNR(pnr), caseID)
}

func displayPNR(pnr string) string {
	if pnr == "" {
		return "N/A"
	}
	return pnr
}

// ComposeInvestigationDraft renders the HTML body of the ops draft
func ComposeInvestigationDraft(caseID, body string, grid InvestigationGrid, route RouteDecision, weather *Weather) (string, error) {
	gridHTML, err := RenderInvestigationGrid(grid)
	if err != nil {
		return "", err
	}

	routeLabel := string(route.Class)
	if route.Station != "" {
		routeLabel += " (" + route.Station + ")"
	}

	var buf bytes.Buffer
	err = investigationDraftTmpl.Execute(&buf, struct {
		CaseID         string
		Route          string
		Excerpt        string
		AdverseWeather bool
		Weather        string
		Grid           template.HTML
	}{
		CaseID:         caseID,
		Route:          routeLabel,
		Excerpt:        excerpt(body),
		AdverseWeather: weather.IsAdverse(),
		Weather:        weather.Condition(),
		Grid:           template.HTML(gridHTML),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render investigation draft: %w", err)
	}
	return buf.String(), nil
}

// FinalSubject is the subject of the draft sent to the CX team
func FinalSubject(caseID string, score int) string {
	return fmt.Sprintf("[FINAL DRAFT] Response for Case %s (Score: %d/100)", caseID, score)
}

// Recommendation is the suggested next step for the CX team
func Recommendation(status ResolutionStatus) string {
	if status == ResolutionResolved {
		return "Approve & Send"
	}
	return "Review Required"
}

// ComposeFinalDraft renders the HTML body of the CX draft
func ComposeFinalDraft(caseID string, grid InvestigationGrid, resolution ResolutionGrid, eval Evaluation) (string, error) {
	gridHTML, err := RenderCompletedGrid(grid, resolution, eval)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = finalDraftTmpl.Execute(&buf, struct {
		CaseID         string
		Grid           template.HTML
		Response       []string
		Recommendation template.HTML
	}{
		CaseID:         caseID,
		Grid:           template.HTML(gridHTML),
		Response:       paragraphs(eval.DraftResponse),
		Recommendation: template.HTML(Recommendation(eval.Status)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render final draft: %w", err)
	}
	return buf.String(), nil
}

var paragraphBreak = regexp.MustCompile(`\r?\n\s*\r?\n`)

// paragraphs splits plain text on blank lines
func paragraphs(text string) []string {
	var out []string
	for _, p := range paragraphBreak.Split(strings.TrimSpace(text), -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
