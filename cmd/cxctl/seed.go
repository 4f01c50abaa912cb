package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/yash2163/ComplaintHandling-POC/internal/adapters/repository"
	"github.com/yash2163/ComplaintHandling-POC/internal/core"
	"github.com/yash2163/ComplaintHandling-POC/internal/di"
)

// fixtures is the layout of a seed file
type fixtures struct {
	Passengers []passengerFixture `yaml:"passengers"`
	Weather    []weatherFixture   `yaml:"weather"`
}

type passengerFixture struct {
	PNR          string `yaml:"pnr"`
	CustomerName string `yaml:"customer_name"`
	Email        string `yaml:"email"`
	Phone        string `yaml:"phone"`
	FlightNumber string `yaml:"flight_number"`
	FlightDate   string `yaml:"flight_date"`
	SeatNumber   string `yaml:"seat_number"`
	Source       string `yaml:"source"`
	Destination  string `yaml:"destination"`
}

type weatherFixture struct {
	FlightNumber  string `yaml:"flight_number"`
	OriginStation string `yaml:"origin_station"`
	Date          string `yaml:"date"`
	MetarRaw      string `yaml:"metar_raw"`
	Weather       string `yaml:"weather"`
	Visibility    string `yaml:"visibility"`
	Wind          string `yaml:"wind"`
	Impact        string `yaml:"impact"`
}

func newSeedCommand(flags *di.CLIFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load passenger and weather records into the store",
		Long: `Loads reference data from a YAML file of the form:

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
      visibility: 1000m`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			fx, err := parseFixtures(raw)
			if err != nil {
				return err
			}

			return invoke(cmd, flags, func(repo *repository.CaseRepository, logger *zap.Logger) error {
				defer logger.Sync()
				for _, p := range fx.Passengers {
					if err := repo.SavePassenger(cmd.Context(), p.toPassenger()); err != nil {
						return err
					}
				}
				for _, w := range fx.Weather {
					if err := repo.SaveWeather(cmd.Context(), w.toWeather()); err != nil {
						return err
					}
				}
				printSeedSummary(cmd.OutOrStdout(), fx)
				return nil
			})
		},
	}
}

// parseFixtures decodes a seed file, rejecting unknown keys and records
// without their store key
func parseFixtures(raw []byte) (*fixtures, error) {
	var fx fixtures
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i, p := range fx.Passengers {
		if p.PNR == "" {
			return nil, fmt.Errorf("passenger %d has no pnr", i)
		}
	}
	for i, w := range fx.Weather {
		if w.FlightNumber == "" || w.Date == "" {
			return nil, fmt.Errorf("weather %d needs flight_number and date", i)
		}
	}
	return &fx, nil
}

func (p passengerFixture) toPassenger() *core.Passenger {
	return &core.Passenger{
		PNR:          p.PNR,
		CustomerName: p.CustomerName,
		Email:        p.Email,
		Phone:        p.Phone,
		FlightNumber: p.FlightNumber,
		FlightDate:   p.FlightDate,
		SeatNumber:   p.SeatNumber,
		Source:       p.Source,
		Destination:  p.Destination,
	}
}

func (w weatherFixture) toWeather() *core.Weather {
	return &core.Weather{
		FlightNumber:  w.FlightNumber,
		OriginStation: w.OriginStation,
		Date:          w.Date,
		MetarRaw:      w.MetarRaw,
		Weather:       w.Weather,
		Visibility:    w.Visibility,
		Wind:          w.Wind,
		Impact:        w.Impact,
	}
}

func printSeedSummary(w io.Writer, fx *fixtures) {
	fmt.Fprintf(w, "\n=== Seed ===\n")
	fmt.Fprintf(w, "Passengers: %d\n", len(fx.Passengers))
	fmt.Fprintf(w, "Weather: %d\n", len(fx.Weather))
}
