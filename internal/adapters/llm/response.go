package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// flexInt accepts a JSON number, a numeric string or null. Models are not
// consistent about quoting scores.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSuffix(strings.TrimSpace(unq), "%")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid score %s: %w", string(data), err)
	}
	*f = flexInt(math.Round(v))
	return nil
}

type extractionResponse struct {
	PNR              string  `json:"pnr"`
	ComplaintSummary string  `json:"complaint_summary"`
	FlightNumber     string  `json:"flight_number"`
	Date             string  `json:"date"`
	IssueType        string  `json:"issue_type"`
	WeatherCondition string  `json:"weather_condition"`
	ConfidenceScore  flexInt `json:"confidence_score"`
}

type resolutionResponse struct {
	ActionTaken string `json:"action_taken"`
	Outcome     string `json:"outcome"`
}

type evaluationResponse struct {
	Status          string  `json:"status"`
	AgentSummary    string  `json:"agent_summary"`
	ConfidenceScore flexInt `json:"confidence_score"`
	AgentReasoning  string  `json:"agent_reasoning"`
	DraftResponse   string  `json:"draft_response"`
}

var (
	pnrPattern  = regexp.MustCompile(`^[A-Z0-9]{5,8}$`)
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// cleanValue trims a model-provided string and maps placeholder spellings
// of "no value" to empty
func cleanValue(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "null", "none", "n/a", "na", "unknown", "-":
		return ""
	}
	return s
}

func decodeResponse(raw string, out any) error {
	return json.Unmarshal([]byte(raw), out)
}
