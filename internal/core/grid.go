package core

// WeatherUnknown is the grid value when no weather record matched
const WeatherUnknown = "-"

// BuildInvestigationGrid merges passenger data over AI extraction.
// With a passenger record every flight field comes from it, even when empty;
// AI fields are used only when no passenger matched.
func BuildInvestigationGrid(subject string, ext *Extraction, passenger *Passenger, weather *Weather) InvestigationGrid {
	if ext == nil {
		ext = DegradedExtraction()
	}

	grid := InvestigationGrid{
		PNR:              ext.PNR,
		FlightNumber:     ext.FlightNumber,
		Date:             ext.Date,
		Complaint:        ext.ComplaintSummary,
		IssueType:        ext.IssueType,
		WeatherCondition: WeatherUnknown,
		ConfidenceScore:  ext.ConfidenceScore,
	}
	if grid.Complaint == "" {
		grid.Complaint = subject
	}

	if passenger != nil {
		grid.PNR = firstNonEmpty(passenger.PNR, grid.PNR)
		grid.CustomerName = passenger.CustomerName
		grid.FlightNumber = passenger.FlightNumber
		grid.SeatNumber = passenger.SeatNumber
		grid.Source = passenger.Source
		grid.Destination = passenger.Destination
		grid.Date = passenger.FlightDate
	}

	if weather != nil {
		grid.WeatherCondition = weather.Condition()
	}

	return grid
}

// Normalized returns the grid with the weather sentinel applied
func (g InvestigationGrid) Normalized() InvestigationGrid {
	if g.WeatherCondition == "" {
		g.WeatherCondition = WeatherUnknown
	}
	return g
}

// ConfidenceBand names the colour band for a score
type ConfidenceBand string

const (
	BandHigh   ConfidenceBand = "high"
	BandMedium ConfidenceBand = "medium"
	BandLow    ConfidenceBand = "low"
)

// BandFor maps a 0-100 confidence score to its band
func BandFor(score int) ConfidenceBand {
	switch {
	case score >= 80:
		return BandHigh
	case score >= 60:
		return BandMedium
	default:
		return BandLow
	}
}

// Colour is the HTML colour used for the band
func (b ConfidenceBand) Colour() string {
	switch b {
	case BandHigh:
		return "#28a745"
	case BandMedium:
		return "#ffc107"
	default:
		return "#dc3545"
	}
}

// ClampScore bounds a score to 0-100
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
