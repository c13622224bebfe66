package config

import (
	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/companion-lab/mnemosyne/pkg/utils/logging"
)

// Sentry holds CLI flags for Sentry error tracking
type Sentry struct {
	dsn string
	env string
}

// Flags returns CLI flags for Sentry configuration
func (s *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN for error tracking (disabled when empty)",
			Sources:     cli.EnvVars("MNEMOSYNE_SENTRY_DSN"),
			Destination: &s.dsn,
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment name",
			Sources:     cli.EnvVars("MNEMOSYNE_SENTRY_ENV"),
			Destination: &s.env,
		},
	}
}

// Configure initializes the Sentry SDK when a DSN is configured
func (s *Sentry) Configure(version string) error {
	if s.dsn == "" {
		return nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         s.dsn,
		Environment: s.env,
		Release:     version,
	}); err != nil {
		return goerr.Wrap(err, "failed to initialize sentry")
	}

	logging.Default().Info("Sentry error tracking enabled", "env", s.env)
	return nil
}
