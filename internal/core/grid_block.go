package core

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

const (
	GridBlockStart = "=== INVESTIGATION GRID ==="
	GridBlockEnd   = "=== END GRID ==="

	nullValue = "-"
)

type gridField struct {
	label string
	get   func(*InvestigationGrid) string
	set   func(*InvestigationGrid, string)
	// sentinel fields store "-" literally instead of treating it as null
	sentinel bool
}

var gridFields = []gridField{
	{label: "PNR", get: func(g *InvestigationGrid) string { return g.PNR }, set: func(g *InvestigationGrid, v string) { g.PNR = v }},
	{label: "Customer Name", get: func(g *InvestigationGrid) string { return g.CustomerName }, set: func(g *InvestigationGrid, v string) { g.CustomerName = v }},
	{label: "Flight Number", get: func(g *InvestigationGrid) string { return g.FlightNumber }, set: func(g *InvestigationGrid, v string) { g.FlightNumber = v }},
	{label: "Seat Number", get: func(g *InvestigationGrid) string { return g.SeatNumber }, set: func(g *InvestigationGrid, v string) { g.SeatNumber = v }},
	{label: "Source", get: func(g *InvestigationGrid) string { return g.Source }, set: func(g *InvestigationGrid, v string) { g.Source = v }},
	{label: "Destination", get: func(g *InvestigationGrid) string { return g.Destination }, set: func(g *InvestigationGrid, v string) { g.Destination = v }},
	{label: "Complaint", get: func(g *InvestigationGrid) string { return g.Complaint }, set: func(g *InvestigationGrid, v string) { g.Complaint = v }},
	{label: "Issue Type", get: func(g *InvestigationGrid) string { return string(g.IssueType) }, set: func(g *InvestigationGrid, v string) { g.IssueType = IssueType(v) }},
	{label: "Weather Condition", get: func(g *InvestigationGrid) string { return g.WeatherCondition }, set: func(g *InvestigationGrid, v string) { g.WeatherCondition = v }, sentinel: true},
	{label: "Date", get: func(g *InvestigationGrid) string { return g.Date }, set: func(g *InvestigationGrid, v string) { g.Date = v }},
}

const confidenceLabel = "Confidence Score"

// EncodeGridBlock renders the machine-readable block embedded in outbound
// drafts. ParseGridBlock recovers exactly the same grid from it. Values never
// contain '<' or '&', so HTML clean-up in the parser leaves them intact.
func EncodeGridBlock(grid InvestigationGrid) string {
	g := grid.Normalized()

	var b strings.Builder
	b.WriteString(GridBlockStart)
	b.WriteByte('\n')
	for _, f := range gridFields {
		b.WriteString(f.label)
		b.WriteString(": ")
		b.WriteString(encodeValue(f.get(&g), f.sentinel))
		b.WriteByte('\n')
	}
	b.WriteString(confidenceLabel)
	b.WriteString(": ")
	b.WriteString(strconv.Itoa(g.ConfidenceScore))
	b.WriteByte('\n')
	b.WriteString(GridBlockEnd)
	return b.String()
}

func encodeValue(v string, sentinel bool) string {
	switch {
	case v == "":
		return nullValue
	case v == nullValue && sentinel:
		return nullValue
	case v == nullValue:
		return `\-`
	}

	var b strings.Builder
	runes := []rune(v)
	for i, r := range runes {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '<':
			b.WriteString(`\x3c`)
		case r == '&':
			b.WriteString(`\x26`)
		case r == '=' && i >= 2 && runes[i-1] == '=' && runes[i-2] == '=':
			// keeps delimiter text inside a value from ending the block
			b.WriteString(`\=`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func decodeValue(raw string, sentinel bool) string {
	if raw == nullValue {
		if sentinel {
			return nullValue
		}
		return ""
	}

	var b strings.Builder
	runes := []rune(raw)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '\\' {
			b.WriteRune(r)
			continue
		}
		if i+1 == len(runes) {
			b.WriteRune('\\')
			break
		}
		i++
		switch runes[i] {
		case 'n':
			b.WriteRune('\n')
		case 'r':
			b.WriteRune('\r')
		case 'x':
			if i+2 < len(runes) {
				if c, err := strconv.ParseUint(string(runes[i+1:i+3]), 16, 8); err == nil {
					b.WriteByte(byte(c))
					i += 2
					continue
				}
			}
			b.WriteRune('x')
		default:
			b.WriteRune(runes[i])
		}
	}
	return b.String()
}

var (
	htmlMarker    = regexp.MustCompile(`(?i)<(html|body|div|p|br|table|pre|span)\b`)
	htmlLineBreak = regexp.MustCompile(`(?i)<br\s*/?>|</(div|p|tr|pre)>`)
	htmlTag       = regexp.MustCompile(`<[^>]*>`)
)

// ParseGridBlock finds the first embedded grid block in a plaintext or HTML
// email body. It reports false when no complete block is present.
func ParseGridBlock(text string) (InvestigationGrid, bool) {
	if htmlMarker.MatchString(text) {
		text = htmlLineBreak.ReplaceAllString(text, "\n")
		text = htmlTag.ReplaceAllString(text, "")
		text = html.UnescapeString(text)
	}

	start := strings.Index(text, GridBlockStart)
	if start < 0 {
		return InvestigationGrid{}, false
	}
	rest := text[start+len(GridBlockStart):]
	end := strings.Index(rest, GridBlockEnd)
	if end < 0 {
		return InvestigationGrid{}, false
	}

	grid := InvestigationGrid{WeatherCondition: WeatherUnknown}
	for _, line := range strings.Split(rest[:end], "\n") {
		line = strings.TrimSuffix(line, "\r")
		line = strings.TrimLeft(line, " \t>")
		if line == "" {
			continue
		}

		if v, ok := fieldValue(line, confidenceLabel); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				grid.ConfidenceScore = n
			}
			continue
		}
		for _, f := range gridFields {
			if v, ok := fieldValue(line, f.label); ok {
				f.set(&grid, decodeValue(v, f.sentinel))
				break
			}
		}
	}
	return grid, true
}

func fieldValue(line, label string) (string, bool) {
	if line == label+":" {
		return nullValue, true
	}
	prefix := label + ": "
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	return line[len(prefix):], true
}
