package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestResolverEnrich(t *testing.T) {
	store := newFakeStore()
	store.passengers["ABC123"] = &Passenger{PNR: "ABC123", FlightNumber: "6E-2341", FlightDate: "2026-01-10", Source: "DEL"}
	store.weather["6E-2341_2026-01-10"] = &Weather{FlightNumber: "6E-2341", OriginStation: "DEL", Date: "2026-01-10", Weather: "Fog", Visibility: "1000m"}

	r := NewResolver(store, zap.NewNop())

	e := r.Enrich(context.Background(), "ABC123")
	assert.NotNil(t, e.Passenger)
	if assert.NotNil(t, e.Weather) {
		assert.Equal(t, "Fog (Vis: 1000m)", e.Weather.Condition())
	}

	e = r.Enrich(context.Background(), "NOPE")
	assert.Nil(t, e.Passenger)
	assert.Nil(t, e.Weather)

	e = r.Enrich(context.Background(), "")
	assert.Nil(t, e.Passenger)
}

func TestResolverOriginMismatch(t *testing.T) {
	store := newFakeStore()
	store.weather["6E-1_2026-01-10"] = &Weather{OriginStation: "BOM", Weather: "Clear", Visibility: "6000m"}

	r := NewResolver(store, zap.NewNop())
	assert.Nil(t, r.LookupWeather(context.Background(), "6E-1", "2026-01-10", "DEL"))
	assert.NotNil(t, r.LookupWeather(context.Background(), "6E-1", "2026-01-10", "bom"))
	assert.Nil(t, r.LookupWeather(context.Background(), "", "2026-01-10", "BOM"))
}

func TestResolverSwallowsFaults(t *testing.T) {
	store := newFakeStore()
	store.lookupErr = errUnavailable

	r := NewResolver(store, zap.NewNop())
	e := r.Enrich(context.Background(), "ABC123")
	assert.Nil(t, e.Passenger)
	assert.Nil(t, e.Weather)
}

func TestWeatherIsAdverse(t *testing.T) {
	tests := []struct {
		name    string
		weather *Weather
		want    bool
	}{
		{"nil", nil, false},
		{"fog word", &Weather{Weather: "Dense Fog", Visibility: "4000m"}, true},
		{"metar code", &Weather{Weather: "BR HZ", Visibility: "3000 meters"}, true},
		{"low visibility", &Weather{Weather: "Clear", Visibility: "800m"}, true},
		{"fine", &Weather{Weather: "Clear", Visibility: "6000m"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.weather.IsAdverse())
		})
	}
}
