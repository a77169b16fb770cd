// Command verify runs a single check-in through the same validation rules as
// the HTTP service, using the service's environment configuration. It is meant
// for operators debugging a rejected check-in.
//
// Usage:
//
//	go run ./cmd/verify -token "$TOKEN" -lat 11.18957 -lng -74.21414
//	go run ./cmd/verify -token "$TOKEN" -body '{"latitude":"11.19","lon":"-74.21"}'
//
// The decision is printed as JSON on stdout. The exit status is 0 when the
// check-in is accepted and 2 when it is rejected.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/couchcryptid/checkin-geofence-service/internal/checkin"
	"github.com/couchcryptid/checkin-geofence-service/internal/config"
	"github.com/couchcryptid/checkin-geofence-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

func main() {
	token := flag.String("token", "", "check-in token")
	lat := flag.Float64("lat", 0, "latitude in decimal degrees")
	lng := flag.Float64("lng", 0, "longitude in decimal degrees")
	body := flag.String("body", "", "raw JSON body; overrides -lat and -lng")
	method := flag.String("method", http.MethodPost, "request method to simulate")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	svc := checkin.New(checkin.Settings{
		Secret:       []byte(cfg.TokenSecret),
		RadiusMeters: cfg.RadiusMeters,
		Sites:        cfg.Sites,
	}, clockwork.NewRealClock(), nil, logger, observability.NewMetrics())

	raw := *body
	if raw == "" {
		data, err := json.Marshal(map[string]float64{"lat": *lat, "lng": *lng})
		if err != nil {
			fmt.Fprintf(os.Stderr, "encode body: %v\n", err)
			os.Exit(1)
		}
		raw = string(data)
	}

	d := svc.Validate(context.Background(), checkin.Request{
		Method: *method,
		Token:  *token,
		Body:   []byte(raw),
	})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		fmt.Fprintf(os.Stderr, "encode decision: %v\n", err)
		os.Exit(1)
	}
	if !d.OK {
		os.Exit(2)
	}
}
