package core

import (
	"fmt"
	"sort"
	"strings"
)

// RoutingTable maps departure stations to base-ops mailboxes. It is built
// once from configuration and never mutated afterwards.
type RoutingTable struct {
	stations          map[string]string
	customerMailbox   string
	caseReviewMailbox string
}

// DefaultStations is the station to base-ops mailbox table used when no
// override is configured
var DefaultStations = map[string]string{
	"DEL": "BASEOPSDELHI@minfytech.com",
	"BOM": "BASEOPSMUMBAI@minfytech.com",
	"BLR": "BASEOPSBANGALORE@minfytech.com",
	"HYD": "BASEOPSHYDERABAD@minfytech.com",
	"CCU": "BASEOPSKOLKATA@minfytech.com",
}

const (
	DefaultCustomerMailbox   = "CXINDIGO@minfytech.com"
	DefaultCaseReviewMailbox = "CRINDIGO@minfytech.com"
)

// NewRoutingTable validates and copies the routing configuration
func NewRoutingTable(stations map[string]string, customerMailbox, caseReviewMailbox string) (RoutingTable, error) {
	if customerMailbox == "" {
		return RoutingTable{}, fmt.Errorf("customer mailbox is required")
	}
	if caseReviewMailbox == "" {
		return RoutingTable{}, fmt.Errorf("case review mailbox is required")
	}

	copied := make(map[string]string, len(stations))
	for code, mailbox := range stations {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" || mailbox == "" {
			return RoutingTable{}, fmt.Errorf("invalid station route %q -> %q", code, mailbox)
		}
		copied[code] = mailbox
	}

	return RoutingTable{
		stations:          copied,
		customerMailbox:   customerMailbox,
		caseReviewMailbox: caseReviewMailbox,
	}, nil
}

// DefaultRoutingTable returns the built-in routing table
func DefaultRoutingTable() RoutingTable {
	t, _ := NewRoutingTable(DefaultStations, DefaultCustomerMailbox, DefaultCaseReviewMailbox)
	return t
}

// Route decides where the investigation request for a complaint goes.
// No passenger means the case is unmatched; a passenger whose departure
// station has no base-ops mailbox goes to case review.
func (t RoutingTable) Route(p *Passenger) RouteDecision {
	if p == nil {
		return RouteDecision{
			Class:   RouteUnmatched,
			Mailbox: t.caseReviewMailbox,
			Action:  ActionRouteUnmatched,
		}
	}

	station := strings.ToUpper(strings.TrimSpace(p.Source))
	if mailbox, ok := t.stations[station]; ok {
		return RouteDecision{
			Class:   RouteStation,
			Station: station,
			Mailbox: mailbox,
			Action:  ActionRouteToOps,
		}
	}

	return RouteDecision{
		Class:   RouteUnknownStation,
		Station: station,
		Mailbox: t.caseReviewMailbox,
		Action:  ActionRouteToCaseReview,
	}
}

// CustomerMailbox is the fixed recipient of final drafts
func (t RoutingTable) CustomerMailbox() string { return t.customerMailbox }

// CaseReviewMailbox receives cases that cannot go to a station
func (t RoutingTable) CaseReviewMailbox() string { return t.caseReviewMailbox }

// Stations lists the configured station codes in order
func (t RoutingTable) Stations() []string {
	codes := make([]string, 0, len(t.stations))
	for code := range t.stations {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// MailboxFor returns the base-ops mailbox for a station
func (t RoutingTable) MailboxFor(station string) (string, bool) {
	m, ok := t.stations[strings.ToUpper(station)]
	return m, ok
}
