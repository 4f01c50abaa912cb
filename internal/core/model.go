package core

import (
	"strings"
	"time"
)

// EmailType distinguishes inbound complaints from ops replies
type EmailType string

const (
	EmailTypeComplaint  EmailType = "COMPLAINT"
	EmailTypeResolution EmailType = "RESOLUTION"
)

// EmailStatus is the lifecycle status of a stored email record
type EmailStatus string

const (
	StatusNew       EmailStatus = "NEW"
	StatusProcessed EmailStatus = "PROCESSED"
	StatusResolved  EmailStatus = "RESOLVED"
)

// EmailRecord is a persisted inbound email. It is created once at ingestion,
// updated once by its processor, and a complaint is updated a second time
// when its resolution completes.
type EmailRecord struct {
	ID                string      `json:"id"`
	Subject           string      `json:"subject"`
	Body              string      `json:"body"`
	From              string      `json:"from,omitempty"`
	ReceivedAt        time.Time   `json:"receivedAt"`
	Type              EmailType   `json:"type"`
	Status            EmailStatus `json:"status"`
	CxCaseID          string      `json:"cxCaseId,omitempty"`
	AgentAction       string      `json:"agentAction,omitempty"`
	ProcessedAt       *time.Time  `json:"processedAt,omitempty"`
	DraftID           string      `json:"draftId,omitempty"`
	Metadata          *Metadata   `json:"metadata,omitempty"`
	ResolutionEmailID string      `json:"resolutionEmailId,omitempty"`
	SavedAt           time.Time   `json:"savedAt"`
}

// IssueType is the complaint category assigned by extraction
type IssueType string

const (
	IssueFlightDelay   IssueType = "FLIGHT_DELAY"
	IssueCancellation  IssueType = "CANCELLATION"
	IssueStaffBehavior IssueType = "STAFF_BEHAVIOR"
	IssueBaggage       IssueType = "BAGGAGE"
	IssueRefund        IssueType = "REFUND"
	IssueOther         IssueType = "OTHER"
)

// NormalizeIssueType maps free-form model output onto a known category.
// Unknown values become OTHER.
func NormalizeIssueType(s string) IssueType {
	t := IssueType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case IssueFlightDelay, IssueCancellation, IssueStaffBehavior, IssueBaggage, IssueRefund, IssueOther:
		return t
	}
	return IssueOther
}

// Extraction is the structured result of reading a complaint email
type Extraction struct {
	PNR              string    `json:"pnr,omitempty"`
	ComplaintSummary string    `json:"complaint_summary,omitempty"`
	FlightNumber     string    `json:"flight_number,omitempty"`
	Date             string    `json:"date,omitempty"`
	IssueType        IssueType `json:"issue_type"`
	WeatherCondition string    `json:"weather_condition,omitempty"`
	ConfidenceScore  int       `json:"confidence_score"`
}

// DegradedExtraction is used when the extraction call fails
func DegradedExtraction() *Extraction {
	return &Extraction{IssueType: IssueOther, ConfidenceScore: 0}
}

// InvestigationGrid is the structured case summary sent to base ops.
// An empty string means the field is unknown.
type InvestigationGrid struct {
	PNR              string    `json:"pnr,omitempty"`
	CustomerName     string    `json:"customer_name,omitempty"`
	FlightNumber     string    `json:"flight_number,omitempty"`
	SeatNumber       string    `json:"seat_number,omitempty"`
	Source           string    `json:"source,omitempty"`
	Destination      string    `json:"destination,omitempty"`
	Complaint        string    `json:"complaint,omitempty"`
	IssueType        IssueType `json:"issue_type,omitempty"`
	WeatherCondition string    `json:"weather_condition"`
	Date             string    `json:"date,omitempty"`
	ConfidenceScore  int       `json:"confidence_score"`
}

// ResolutionGrid is the ops-supplied part of a reply
type ResolutionGrid struct {
	ActionTaken string `json:"action_taken,omitempty"`
	Outcome     string `json:"outcome,omitempty"`
}

// ResolutionStatus is the evaluation verdict
type ResolutionStatus string

const (
	ResolutionResolved ResolutionStatus = "RESOLVED"
	ResolutionFlagged  ResolutionStatus = "FLAGGED"
)

// Evaluation is the judgement of a resolution against its complaint
type Evaluation struct {
	Status          ResolutionStatus `json:"status"`
	ConfidenceScore int              `json:"confidence_score"`
	AgentSummary    string           `json:"agent_summary"`
	AgentReasoning  string           `json:"agent_reasoning,omitempty"`
	DraftResponse   string           `json:"draft_response"`
}

// DegradedEvaluation is used when the evaluation call fails
func DegradedEvaluation() *Evaluation {
	return &Evaluation{
		Status:          ResolutionFlagged,
		ConfidenceScore: 0,
		AgentSummary:    "AI Error",
		AgentReasoning:  "Evaluation could not be completed.",
		DraftResponse:   "Error generating draft.",
	}
}

// Passenger is a booking record keyed by PNR
type Passenger struct {
	PNR          string `json:"pnr"`
	CustomerName string `json:"customerName"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	FlightNumber string `json:"flightNumber"`
	FlightDate   string `json:"flightDate"`
	SeatNumber   string `json:"seatNumber,omitempty"`
	Source       string `json:"source"`
	Destination  string `json:"destination"`
}

// Weather is an observation for a flight's departure, keyed by flight and date
type Weather struct {
	FlightNumber  string `json:"flightNumber"`
	OriginStation string `json:"originStation,omitempty"`
	Date          string `json:"date"`
	MetarRaw      string `json:"metarRaw,omitempty"`
	Weather       string `json:"weather"`
	Visibility    string `json:"visibility"`
	Wind          string `json:"wind,omitempty"`
	Impact        string `json:"impact,omitempty"`
}

// WeatherKey is the store key for a flight's weather record
func WeatherKey(flightNumber, date string) string {
	return flightNumber + "_" + date
}

// RouteClass is the routing category of a complaint
type RouteClass string

const (
	RouteStation        RouteClass = "STATION"
	RouteUnknownStation RouteClass = "UNKNOWN_STATION"
	RouteUnmatched      RouteClass = "UNMATCHED"
)

// Agent actions recorded on processed records
const (
	ActionRouteToOps        = "ROUTE_TO_OPS"
	ActionRouteToCaseReview = "ROUTE_TO_CASE_REVIEW"
	ActionRouteUnmatched    = "ROUTE_UNMATCHED"
)

// RouteDecision is where a complaint's investigation request goes
type RouteDecision struct {
	Class   RouteClass `json:"class"`
	Station string     `json:"station,omitempty"`
	Mailbox string     `json:"mailbox"`
	Action  string     `json:"action"`
}

// Metadata holds the processor output stored on an email record
type Metadata struct {
	Investigation *InvestigationGrid `json:"investigation,omitempty"`
	Route         *RouteDecision     `json:"route,omitempty"`
	Resolution    *ResolutionGrid    `json:"resolution,omitempty"`
	Evaluation    *Evaluation        `json:"evaluation,omitempty"`
	Score         *int               `json:"score,omitempty"`
	Degraded      []string           `json:"degraded,omitempty"`
}

// Draft is a mailbox draft created for human review
type Draft struct {
	ID      string
	Mailbox string
}

// Event is the transport payload announcing a newly ingested email
type Event struct {
	EmailID  string `json:"emailId"`
	CxCaseID string `json:"cxCaseId,omitempty"`
}

// Topics on which ingestion publishes events
const (
	TopicComplaint  = "new-complaint"
	TopicResolution = "new-resolution"
)
