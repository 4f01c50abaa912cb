package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yash2163/ComplaintHandling-POC/internal/core"
	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
)

func TestParseFixtures(t *testing.T) {
	raw := []byte(`
passengers:
  - pnr: ABC123
    customer_name: Asha Rao
    flight_number: 6E-2341
    flight_date: "2026-01-10"
    source: DEL
    destination: BOM
weather:
  - flight_number: 6E-2341
    date: "2026-01-10"
    origin_station: DEL
    weather: Fog
    visibility: 1000m
`)

	fx, err := parseFixtures(raw)
	require.NoError(t, err)
	require.Len(t, fx.Passengers, 1)
	require.Len(t, fx.Weather, 1)

	p := fx.Passengers[0].toPassenger()
	assert.Equal(t, "Asha Rao", p.CustomerName)
	assert.Equal(t, "DEL", p.Source)

	w := fx.Weather[0].toWeather()
	assert.Equal(t, "6E-2341_2026-01-10", core.WeatherKey(w.FlightNumber, w.Date))
	assert.Equal(t, "1000m", w.Visibility)
}

func TestParseFixturesRejectsBadInput(t *testing.T) {
	_, err := parseFixtures([]byte("passengers:\n  - customer_name: nobody\n"))
	assert.Error(t, err)

	_, err = parseFixtures([]byte("weather:\n  - flight_number: 6E-1\n"))
	assert.Error(t, err)

	_, err = parseFixtures([]byte("travellers: []\n"))
	assert.Error(t, err)

	fx, err := parseFixtures(nil)
	require.NoError(t, err)
	assert.Empty(t, fx.Passengers)
}

func TestResolveType(t *testing.T) {
	tagged := ports.InboundMessage{Subject: "RE: Investigation [Case: CMP-2026-0001]"}
	plain := ports.InboundMessage{Subject: "Lost bag", Body: "Case ID: CMP-2026-0001"}

	kind, err := resolveType("auto", tagged)
	require.NoError(t, err)
	assert.Equal(t, core.EmailTypeResolution, kind)

	kind, err = resolveType("auto", plain)
	require.NoError(t, err)
	assert.Equal(t, core.EmailTypeComplaint, kind)

	kind, err = resolveType("Resolution", plain)
	require.NoError(t, err)
	assert.Equal(t, core.EmailTypeResolution, kind)

	_, err = resolveType("newsletter", plain)
	assert.Error(t, err)
}

func TestCaseIDCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newCaseIDCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"RE: Investigation [Case: CMP-2026-0042]"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "CMP-2026-0042\n", out.String())

	cmd = newCaseIDCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"Hello"})
	assert.Error(t, cmd.Execute())
}

func TestPrintComplaintOutcomeSkipped(t *testing.T) {
	var out bytes.Buffer
	printComplaintOutcome(&out, &core.ComplaintOutcome{EmailID: "m1", State: core.StateSkipped, SkipReason: "already processed"}, 0)

	assert.Contains(t, out.String(), "=== Complaint ===")
	assert.Contains(t, out.String(), "Skipped: already processed")
	assert.NotContains(t, out.String(), "Investigation Grid")
}
