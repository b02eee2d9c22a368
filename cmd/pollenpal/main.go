// Package main provides the pollenpal command line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"

	"github.com/pollenpal/pollenpal/internal/cli"
	"github.com/pollenpal/pollenpal/internal/config"
	"github.com/pollenpal/pollenpal/internal/pollen"
	"github.com/pollenpal/pollenpal/internal/pollen/kleenex"
	"github.com/pollenpal/pollenpal/internal/provider/resilience"
)

// Version is set at compile time via ldflags.
var Version = "dev"

// CLI is the pollenpal command line.
type CLI struct {
	EnvFile kongdotenv.ENVFileConfig `kong:"optional,name=env-file,default='.env',help='Path to .env file.'"`

	Location string `arg:"" help:"UK city, town or postcode, e.g. London or \"CF14 2LX\"."`

	Forecast bool `short:"f" help:"Show the multi-day forecast."`
	Detailed bool `short:"d" help:"Show today's breakdown by pollen species."`
	Advice   bool `short:"a" help:"Show health advice for today."`
	JSON     bool `name:"json" help:"Print the full report as JSON."`

	BaseURL string        `name:"base-url" env:"POLLEN_BASE_URL" help:"Pollen provider base URL."`
	Timeout time.Duration `default:"30s" env:"POLLEN_TIMEOUT" help:"Per-request timeout."`
	Retries int           `default:"3" env:"POLLEN_MAX_RETRIES" help:"Retries for transient provider failures."`
	Verbose bool          `short:"v" help:"Log pipeline details to stderr."`

	Version kong.VersionFlag `help:"Print version and exit."`
}

// Run fetches one report and renders it to stdout.
func (c *CLI) Run(ctx context.Context, stdout, stderr io.Writer) error {
	level := zerolog.WarnLevel
	if c.Verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()

	if c.Retries < 0 {
		return errors.New("--retries must not be negative")
	}

	pollenCfg := config.PollenConfig{
		BaseURL:        c.BaseURL,
		Timeout:        c.Timeout,
		MaxRetries:     c.Retries,
		RateLimitBurst: 1,
	}
	provider := kleenex.NewClient(kleenex.ClientConfig{
		BaseURL:    pollenCfg.BaseURL,
		HTTPClient: resilience.NewClient(pollenCfg.ClientConfig(kleenex.ProviderName, nil, log)),
		Logger:     log,
	})
	service := pollen.NewService(pollen.ServiceConfig{
		Index:  provider,
		Source: provider,
		Logger: log,
	})

	fmt.Fprintf(stderr, "Fetching pollen data for: %s\n", c.Location)

	report, err := service.GetPollenReport(ctx, c.Location)
	if err != nil {
		return describe(c.Location, err)
	}

	renderer := cli.NewRenderer(stdout)
	if c.JSON {
		return renderer.JSON(report)
	}
	return renderer.Report(report, cli.Options{
		Forecast: c.Forecast,
		Detailed: c.Detailed,
		Advice:   c.Advice,
	})
}

// describe turns a pipeline error into a message for the terminal.
func describe(location string, err error) error {
	switch {
	case errors.Is(err, pollen.ErrLocationNotFound):
		return fmt.Errorf("no pollen data found for %q, check the location and try again", location)
	case errors.Is(err, pollen.ErrUpstreamRejected):
		return fmt.Errorf("the pollen provider rejected the request: %w", err)
	case errors.Is(err, pollen.ErrUpstreamUnavailable), errors.Is(err, pollen.ErrIncompleteForecast):
		return fmt.Errorf("pollen data is unavailable right now, try again later: %w", err)
	default:
		return err
	}
}

func main() {
	var c CLI
	kctx := kong.Parse(&c,
		kong.Name("pollenpal"),
		kong.Description("UK pollen levels, forecast and health advice."),
		kong.UsageOnError(),
		kong.Vars{"version": Version},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kctx.FatalIfErrorf(c.Run(ctx, os.Stdout, os.Stderr))
}
