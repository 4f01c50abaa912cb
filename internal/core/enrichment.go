package core

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Enrichment is the context gathered for a complaint
type Enrichment struct {
	Passenger *Passenger
	Weather   *Weather
}

// Resolver looks up passenger and weather context for a PNR.
// Every lookup is fault tolerant: errors are logged and yield nil.
type Resolver struct {
	store  CaseStore
	logger *zap.Logger
}

// NewResolver creates a new enrichment resolver
func NewResolver(store CaseStore, logger *zap.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

// Enrich resolves the passenger for pnr and, only if one was found, the
// weather for that passenger's flight.
func (r *Resolver) Enrich(ctx context.Context, pnr string) Enrichment {
	var e Enrichment
	e.Passenger = r.LookupPassenger(ctx, pnr)
	if e.Passenger != nil {
		e.Weather = r.LookupWeather(ctx, e.Passenger.FlightNumber, e.Passenger.FlightDate, e.Passenger.Source)
	}
	return e
}

// LookupPassenger fetches the booking for pnr
func (r *Resolver) LookupPassenger(ctx context.Context, pnr string) *Passenger {
	if pnr == "" {
		return nil
	}

	p, err := r.store.GetPassenger(ctx, pnr)
	if err != nil {
		r.logger.Error("Failed to fetch passenger", zap.String("pnr", pnr), zap.Error(err))
		return nil
	}
	if p == nil {
		r.logger.Debug("No passenger for PNR", zap.String("pnr", pnr))
	}
	return p
}

// LookupWeather fetches the weather recorded for a flight on a date. A record
// for a different origin station than origin is treated as no match.
func (r *Resolver) LookupWeather(ctx context.Context, flightNumber, date, origin string) *Weather {
	if flightNumber == "" || date == "" {
		return nil
	}

	w, err := r.store.GetWeather(ctx, flightNumber, date)
	if err != nil {
		r.logger.Error("Failed to fetch weather",
			zap.String("key", WeatherKey(flightNumber, date)),
			zap.Error(err))
		return nil
	}
	if w == nil {
		return nil
	}
	if w.OriginStation != "" && origin != "" && !strings.EqualFold(w.OriginStation, origin) {
		r.logger.Warn("Weather record origin mismatch",
			zap.String("key", WeatherKey(flightNumber, date)),
			zap.String("record_origin", w.OriginStation),
			zap.String("passenger_origin", origin))
		return nil
	}
	return w
}

var (
	adverseCodes   = []string{"HZ", "TS", "FG", "SN", "GR"}
	adverseWords   = []string{"fog", "haze", "thunderstorm", "snow", "hail"}
	visibilityNums = regexp.MustCompile(`(\d+)`)
)

const adverseVisibilityMeters = 1500

// Condition renders the grid value for a weather record
func (w *Weather) Condition() string {
	if w == nil {
		return WeatherUnknown
	}
	return w.Weather + " (Vis: " + w.Visibility + ")"
}

// IsAdverse reports whether the observation suggests weather-driven disruption
func (w *Weather) IsAdverse() bool {
	if w == nil {
		return false
	}

	for _, code := range adverseCodes {
		if strings.Contains(w.Weather, code) {
			return true
		}
	}
	desc := strings.ToLower(w.Weather)
	for _, word := range adverseWords {
		if strings.Contains(desc, word) {
			return true
		}
	}
	if m := visibilityNums.FindStringSubmatch(w.Visibility); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil && v < adverseVisibilityMeters {
			return true
		}
	}
	return false
}
