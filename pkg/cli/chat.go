package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/companion-lab/mnemosyne/pkg/cli/config"
	"github.com/companion-lab/mnemosyne/pkg/domain/model"
	"github.com/companion-lab/mnemosyne/pkg/usecase"
	"github.com/companion-lab/mnemosyne/pkg/utils/logging"
)

func cmdChat() *cli.Command {
	var personaName string
	var repoCfg config.Repository
	var geminiCfg config.Gemini
	var keysCfg config.Keys
	var seedCfg config.Seed

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "persona",
			Usage:       "Name of the persona to chat with",
			Required:    true,
			Sources:     cli.EnvVars("MNEMOSYNE_PERSONA"),
			Destination: &personaName,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, keysCfg.Flags()...)
	flags = append(flags, seedCfg.Flags()...)

	return &cli.Command{
		Name:    "chat",
		Aliases: []string{"c"},
		Usage:   "Chat with a persona interactively",
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

			persona, err := findPersonaByName(ctx, uc, personaName)
			if err != nil {
				return err
			}

			session, err := uc.Session.Create(ctx, persona.ID, "")
			if err != nil {
				return goerr.Wrap(err, "failed to create session")
			}

			return runChatLoop(ctx, uc, persona, session)
		},
	}
}

func findPersonaByName(ctx context.Context, uc *usecase.UseCases, name string) (*model.Persona, error) {
	personas, err := uc.Persona.List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list personas")
	}
	for _, p := range personas {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}

	known := make([]string, 0, len(personas))
	for _, p := range personas {
		known = append(known, p.Name)
	}
	return nil, goerr.New("persona not found", goerr.V("name", name), goerr.V("known", known))
}

func runChatLoop(ctx context.Context, uc *usecase.UseCases, persona *model.Persona, session *model.ChatSession) error {
	personaColor := color.New(color.FgCyan, color.Bold)
	promptColor := color.New(color.FgGreen, color.Bold)
	dimColor := color.New(color.Faint)

	dimColor.Println("Type a message and press Enter. /quit to leave.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		promptColor.Print("you> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			dimColor.Println("bye")
			return nil
		}

		result, err := uc.Chat.SendMessage(ctx, persona.ID, session.ID, line)
		if err != nil {
			color.Red("error: %v", err)
			continue
		}

		if n := len(result.Retrieved); n > 0 {
			dimColor.Printf("(recalled %d past conversation(s))\n", n)
		}
		personaColor.Printf("%s> ", persona.Name)
		fmt.Println(result.Reply.Content)
		fmt.Println()
	}
}
