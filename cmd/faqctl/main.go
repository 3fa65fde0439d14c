package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/crypto/bcrypt"

	"faqdesk/internal/app"
	"faqdesk/internal/bootstrap"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "faqctl",
		Usage: "Maintenance commands for the FAQ desk",
		Commands: []*cli.Command{
			{
				Name:   "backfill-embeddings",
				Usage:  "Embed every FAQ entry that has no embedding yet",
				Action: backfillCommand,
			},
			{
				Name:   "reembed",
				Usage:  "Recompute the embedding of one FAQ entry",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "FAQ entry id",
						Required: true,
					},
				},
			},
			{
				Name:   "ask",
				Usage:  "Run a question through the answer pipeline and print the result",
				Action: askCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "question",
						Aliases:  []string{"q"},
						Usage:    "Question text",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "scope",
						Usage: "internal or study",
						Value: app.ScopeInternal,
					},
				},
			},
			{
				Name:   "hash-secret",
				Usage:  "Print the bcrypt hash of an admin secret for admin.reembed_secret_hash",
				Action: hashSecretCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "secret",
						Usage:    "Admin secret",
						EnvVars:  []string{"FAQDESK_ADMIN_SECRET"},
						Required: true,
					},
					&cli.IntFlag{
						Name:  "cost",
						Usage: "bcrypt cost",
						Value: bcrypt.DefaultCost,
					},
				},
			},
		},
	}
}

func withApp(c *cli.Context, fn func(ctx context.Context, a *bootstrap.App) error) error {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := bootstrap.NewOffline(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Printf("close resources failed: %v", err)
		}
	}()
	return fn(ctx, a)
}

func backfillCommand(c *cli.Context) error {
	return withApp(c, func(ctx context.Context, a *bootstrap.App) error {
		report, err := a.Services.Reembed.Backfill(ctx)
		if err != nil {
			return fmt.Errorf("backfill failed: %w", err)
		}
		return printJSON(c, report)
	})
}

func reembedCommand(c *cli.Context) error {
	id := strings.TrimSpace(c.String("id"))
	return withApp(c, func(ctx context.Context, a *bootstrap.App) error {
		if err := a.Services.Reembed.Reembed(ctx, id); err != nil {
			return fmt.Errorf("reembed %s failed: %w", id, err)
		}
		fmt.Fprintf(c.App.Writer, "reembedded %s\n", id)
		return nil
	})
}

func askCommand(c *cli.Context) error {
	return withApp(c, func(ctx context.Context, a *bootstrap.App) error {
		res, err := a.Services.Ask.Ask(ctx, app.AskInput{
			Question:  c.String("question"),
			Scope:     c.String("scope"),
			UserAgent: "faqctl",
		})
		if err != nil {
			return err
		}
		return printJSON(c, res)
	})
}

func hashSecretCommand(c *cli.Context) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(c.String("secret")), c.Int("cost"))
	if err != nil {
		return fmt.Errorf("hash secret failed: %w", err)
	}
	fmt.Fprintln(c.App.Writer, string(hash))
	return nil
}

func printJSON(c *cli.Context, v interface{}) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
