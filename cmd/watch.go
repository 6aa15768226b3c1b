package cmd

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/payable/internal/expense"
	"github.com/frahmantamala/payable/internal/snapshot"
	"github.com/frahmantamala/payable/pkg/logger"
)

var (
	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Follow a running server's collections",
		Long:  `Poll a running server's API on the sync interval and log a summary of each complete snapshot.`,
		Run:   runWatch,
	}
	watchToken string
)

func init() {
	watchCmd.Flags().StringVarP(&watchToken, "token", "t", "", "bearer token sent with every request")
}

func runWatch(cmd *cobra.Command, _ []string) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Sync.APIURL == "" {
		log.Fatal("sync.api_url is required for watch")
	}
	lg := logger.LoggerWrapper().With("component", "watch")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source := snapshot.NewHTTPSource(cfg.Sync.APIURL, watchToken, 10*time.Second)
	syncer := snapshot.NewSyncer(source, cfg.Sync.Interval, nil, lg)

	updates := syncer.Subscribe(ctx)
	go syncer.Run(ctx)

	lg.Info("watching", "api_url", cfg.Sync.APIURL, "interval", cfg.Sync.Interval)
	for snap := range updates {
		stats := expense.Summarize(snap.Expenses)
		lg.Info("snapshot",
			"users", len(snap.Users),
			"requests", len(snap.UserRequests),
			"categories", len(snap.Categories),
			"expenses", stats.TotalExpenses,
			"paid", stats.PaidExpenses,
			"unpaid", stats.UnpaidExpenses,
			"unpaid_amount", stats.UnpaidAmount,
		)
	}
	lg.Info("watch stopped")
}
