package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/companion-lab/mnemosyne/pkg/cli/config"
	httpctrl "github.com/companion-lab/mnemosyne/pkg/controller/http"
	"github.com/companion-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/companion-lab/mnemosyne/pkg/service/conversation"
	"github.com/companion-lab/mnemosyne/pkg/service/gateway"
	"github.com/companion-lab/mnemosyne/pkg/service/retrieval"
	"github.com/companion-lab/mnemosyne/pkg/usecase"
	"github.com/companion-lab/mnemosyne/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var addr string
	var repoCfg config.Repository
	var geminiCfg config.Gemini
	var keysCfg config.Keys
	var seedCfg config.Seed

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("MNEMOSYNE_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, keysCfg.Flags()...)
	flags = append(flags, seedCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			uc, err := buildUseCases(ctx, repo, &geminiCfg, &keysCfg)
			if err != nil {
				return err
			}

			if err := seedCfg.Apply(ctx, repo); err != nil {
				return goerr.Wrap(err, "failed to apply persona seed")
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc),
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			eg, egCtx := errgroup.WithContext(sigCtx)
			eg.Go(func() error {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return goerr.Wrap(err, "failed to start server")
				}
				return nil
			})
			eg.Go(func() error {
				<-egCtx.Done()
				logging.Default().Info("Shutting down HTTP server")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}
				return nil
			})

			if err := eg.Wait(); err != nil {
				return err
			}
			logging.Default().Info("Server shutdown completed")
			return nil
		},
	}
}

// buildUseCases assembles the model gateway and services over a configured
// repository. Shared by serve and the interactive chat command.
func buildUseCases(ctx context.Context, repo interfaces.Repository, geminiCfg *config.Gemini, keysCfg *config.Keys) (*usecase.UseCases, error) {
	keys, err := keysCfg.Configure(ctx, repo)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load API key pool")
	}

	rotator, err := gateway.NewRotator(keys)
	if err != nil {
		return nil, goerr.Wrap(err, "no usable API keys; pass --api-key or store keys in the pool")
	}

	gw := gateway.New(geminiCfg.ClientFactory(), rotator,
		gateway.WithThinkingBudget(geminiCfg.ThinkingBudget()))
	return usecase.New(repo, retrieval.New(gw), conversation.New(gw)), nil
}
