package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/payable/internal/category"
	"github.com/frahmantamala/payable/internal/user"
	"github.com/frahmantamala/payable/pkg/logger"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the store with default users and categories",
	Long:  `Seed the configured store with the default users and expense categories. Collections that already hold data are left untouched.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		lg := logger.LoggerWrapper()

		stores, err := openStores(ctx, cfg.Database, lg)
		if err != nil {
			log.Fatalf("failed to open store: %v", err)
		}
		defer stores.Close(ctx)

		userSvc := user.NewService(stores.Users, nil, lg)
		categorySvc := category.NewService(stores.Categories, stores.Expenses, nil, lg)

		if err := seedDefaults(ctx, userSvc, categorySvc, lg); err != nil {
			log.Fatal(err)
		}
		fmt.Println("Seeding finished")
	},
}

type defaultsSeeder interface {
	EnsureDefaults(ctx context.Context) (int, error)
}

func seedDefaults(ctx context.Context, users, categories defaultsSeeder, lg *slog.Logger) error {
	n, err := users.EnsureDefaults(ctx)
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	lg.Info("users seeded", "inserted", n)

	n, err = categories.EnsureDefaults(ctx)
	if err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	lg.Info("categories seeded", "inserted", n)
	return nil
}
