// Command seed loads the default badge catalog into the store of record.
// Existing badges are updated in place, so re-running is safe.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lorehub/reputation/internal/adapters/repository"
	"github.com/lorehub/reputation/internal/config"
	"github.com/lorehub/reputation/internal/domain/criteria"
	"github.com/lorehub/reputation/internal/domain/model"
	"github.com/lorehub/reputation/internal/domain/points"
	"github.com/lorehub/reputation/pkg/logger"
)

func defaultCatalog() []model.Badge {
	return []model.Badge{
		{
			ID:          "first-post",
			Name:        "First Post",
			Icon:        "pencil",
			Description: "Published your first piece of content.",
			Criteria:    criteria.ActionCount(points.ActionPublishContent, 1),
			Active:      true,
		},
		{
			ID:          "prolific-author",
			Name:        "Prolific Author",
			Icon:        "books",
			Description: "Published ten pieces of content.",
			Criteria:    criteria.ActionCount(points.ActionPublishContent, 10),
			Active:      true,
		},
		{
			ID:          "problem-solver",
			Name:        "Problem Solver",
			Icon:        "check",
			Description: "Had five replies marked as the best answer.",
			Criteria:    criteria.ActionCount(points.ActionBestAnswer, 5),
			Active:      true,
		},
		{
			ID:          "pathfinder",
			Name:        "Pathfinder",
			Icon:        "map",
			Description: "Completed a full learning path.",
			Criteria:    criteria.ActionCount(points.ActionCompletePath, 1),
			Active:      true,
		},
		{
			ID:          "regular",
			Name:        "Regular",
			Icon:        "star",
			Description: "Reached 500 reputation.",
			Criteria:    criteria.Reputation(500),
			Active:      true,
		},
		{
			ID:          "pillar",
			Name:        "Pillar of the Community",
			Icon:        "trophy",
			Description: "Reached 5000 reputation.",
			Criteria:    criteria.Reputation(5000),
			Active:      true,
		},
	}
}

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get().Named("seed")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	store, err := repository.NewPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error(ctx, "postgres connection failed", logger.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		log.Error(ctx, "migration failed", logger.Error(err))
		os.Exit(1)
	}

	for _, badge := range defaultCatalog() {
		if err := store.UpsertBadge(ctx, badge); err != nil {
			log.Error(ctx, "badge upsert failed",
				logger.String("badge", badge.ID), logger.Error(err))
			os.Exit(1)
		}
		log.Info(ctx, "badge seeded", logger.String("badge", badge.ID))
	}

	log.Info(ctx, "badge catalog seeded", logger.Int("count", len(defaultCatalog())))
}
