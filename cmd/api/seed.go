package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/emilythestrangee/recipe-votes/backend/internal/auth"
	"github.com/emilythestrangee/recipe-votes/backend/internal/models"
	"github.com/emilythestrangee/recipe-votes/backend/internal/votes"
)

// seedCommand fills an empty database with demo authors, recipes and votes.
// With --print-tokens it writes a session token per author to stdout.
func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Insert demo authors, recipes and votes",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "authors",
				Value: 3,
				Usage: "Number of demo authors to create",
			},
			&cli.BoolFlag{
				Name:  "print-tokens",
				Usage: "Write a 24h session token per demo author to stdout",
			},
			&cli.StringFlag{
				Name:  "password",
				Value: "password123",
				Usage: "Password for every demo author",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			env, err := setup(ctx)
			if err != nil {
				return err
			}
			defer env.close()

			if err := env.db.Migrate(ctx); err != nil {
				return err
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(c.String("password")), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}

			gormDB := env.db.GetDB()
			authors, recipes, err := seedAuthors(ctx, gormDB, int(c.Int("authors")), string(hash))
			if err != nil {
				return err
			}

			// Votes go through the service so the cached totals are right.
			svc := votes.NewService(gormDB, votes.NewRecipeCatalog(gormDB), votes.NewRecalculator(gormDB, env.logger), env.logger)
			for i, voter := range authors {
				for j, recipe := range recipes {
					if (i+j)%2 != 0 {
						continue
					}
					if _, err := svc.Toggle(ctx, recipe.ID, voter.ID); err != nil {
						return fmt.Errorf("failed to seed vote: %w", err)
					}
				}
			}

			for _, user := range authors {
				env.logger.Info("Seeded author",
					zap.Int("user_id", user.ID),
					zap.String("username", user.Username),
				)
			}

			if c.Bool("print-tokens") {
				verifier := auth.NewHMACVerifier(env.cfg.JWT.Secret)
				if err := writeTokens(os.Stdout, verifier, authors, 24*time.Hour); err != nil {
					return err
				}
			}

			env.logger.Info("Seed completed",
				zap.Int("authors", len(authors)),
				zap.Int("recipes", len(recipes)),
			)
			return nil
		},
	}
}

// writeTokens writes one "username<TAB>token" line per author.
func writeTokens(w io.Writer, verifier *auth.HMACVerifier, authors []models.User, ttl time.Duration) error {
	for _, user := range authors {
		token, err := verifier.Issue(user.ID, user.Username, ttl)
		if err != nil {
			return fmt.Errorf("failed to issue token for %s: %w", user.Username, err)
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\n", user.Username, token); err != nil {
			return err
		}
	}
	return nil
}

func seedAuthors(ctx context.Context, db *gorm.DB, n int, passwordHash string) ([]models.User, []models.Recipe, error) {
	var (
		authors []models.User
		recipes []models.Recipe
	)

	now := time.Now().UTC()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range n {
			user := models.User{
				Username:     fmt.Sprintf("chef-%d-%d", now.Unix(), i+1),
				PasswordHash: passwordHash,
			}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("failed to create author: %w", err)
			}
			authors = append(authors, user)

			// One recent recipe and one outside the monthly window.
			for k, age := range []time.Duration{time.Hour, 40 * 24 * time.Hour} {
				recipe := models.Recipe{
					Title:     fmt.Sprintf("Recipe %d by %s", k+1, user.Username),
					AuthorID:  user.ID,
					CreatedAt: now.Add(-age),
				}
				if err := tx.Create(&recipe).Error; err != nil {
					return fmt.Errorf("failed to create recipe: %w", err)
				}
				recipes = append(recipes, recipe)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return authors, recipes, nil
}
