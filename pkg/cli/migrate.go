package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/companion-lab/mnemosyne/pkg/utils/logging"
)

func cmdMigrate() *cli.Command {
	var projectID string
	var databaseID string
	var dryRun bool

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Migrate Firestore indexes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "firestore-project-id",
				Usage:       "Firestore Project ID (required)",
				Required:    true,
				Sources:     cli.EnvVars("MNEMOSYNE_FIRESTORE_PROJECT_ID"),
				Destination: &projectID,
			},
			&cli.StringFlag{
				Name:        "firestore-database-id",
				Usage:       "Firestore Database ID",
				Sources:     cli.EnvVars("MNEMOSYNE_FIRESTORE_DATABASE_ID"),
				Destination: &databaseID,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "Preview changes without applying",
				Destination: &dryRun,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			logger.Info("Migrate configuration",
				"projectID", projectID,
				"databaseID", databaseID,
				"dryRun", dryRun)

			indexConfig := getIndexConfig()

			if dryRun {
				logger.Info("Dry run mode - listing target indexes")
				for _, col := range indexConfig.Collections {
					for _, idx := range col.Indexes {
						fields := make([]string, 0, len(idx.Fields))
						for _, f := range idx.Fields {
							fields = append(fields, fmt.Sprintf("%s %v", f.Path, f.Order))
						}
						logger.Info("Target index",
							"collection", col.Name,
							"fields", strings.Join(fields, ", "))
					}
				}
				return nil
			}

			client, err := fireconf.New(ctx, projectID, databaseID, indexConfig)
			if err != nil {
				return goerr.Wrap(err, "failed to create fireconf client")
			}

			logger.Info("Applying migrations")
			if err := client.Migrate(ctx); err != nil {
				return goerr.Wrap(err, "failed to apply migrations")
			}
			logger.Info("Migrations applied successfully")

			return nil
		},
	}
}

// getIndexConfig returns the Firestore index configuration
func getIndexConfig() *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				// chats subcollection: candidate listing orders by recency
				Name: "chats",
				Indexes: []fireconf.Index{
					{
						Fields: []fireconf.IndexField{
							{Path: "LastActivity", Order: fireconf.OrderDescending},
							{Path: "CreatedAt", Order: fireconf.OrderDescending},
						},
					},
				},
			},
			{
				Name: "personas",
				Indexes: []fireconf.Index{
					{
						Fields: []fireconf.IndexField{
							{Path: "Name", Order: fireconf.OrderAscending},
							{Path: "CreatedAt", Order: fireconf.OrderAscending},
						},
					},
				},
			},
		},
	}
}
