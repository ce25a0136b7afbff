package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/moneybadgers/walkthrough-backend/internal/logger"
	"github.com/moneybadgers/walkthrough-backend/internal/repos"
	"github.com/moneybadgers/walkthrough-backend/internal/types"
)

const defaultLeaderboardLimit = 10

// LeaderboardService turns completed sessions into ranked entries. It
// is the Accumulator's completion recorder.
type LeaderboardService interface {
	RecordCompletion(s *types.Session)
	TopEntries(ctx context.Context, limit int) ([]types.LeaderboardEntry, error)
	Wipe(ctx context.Context) error
}

type leaderboardService struct {
	log  *logger.Logger
	repo repos.LeaderboardRepo
}

func NewLeaderboardService(log *logger.Logger, repo repos.LeaderboardRepo) (LeaderboardService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if repo == nil {
		return nil, fmt.Errorf("leaderboard repo required")
	}
	return &leaderboardService{
		log:  log.With("service", "LeaderboardService"),
		repo: repo,
	}, nil
}

// RecordCompletion runs outside the session mutation scope. Persistence
// failures are logged, never surfaced to the shopper: a lost ranking
// must not fail the add that completed the basket.
func (s *leaderboardService) RecordCompletion(sess *types.Session) {
	if sess == nil || sess.CompletedAt == nil {
		s.log.Warn("completion record skipped; session not completed")
		return
	}

	itemsJSON, err := json.Marshal(sess.Items)
	if err != nil {
		s.log.Error("failed to marshal session items", "error", err, "session_id", sess.ID.String())
		itemsJSON = []byte("[]")
	}

	entry := &types.LeaderboardEntry{
		ID:           uuid.New(),
		SessionID:    sess.ID,
		OwnerName:    sess.OwnerName,
		DurationSecs: int64(sess.Duration(time.Now()).Seconds()),
		CompletedAt:  sess.CompletedAt.UTC(),
		Items:        itemsJSON,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.repo.Insert(ctx, entry); err != nil {
		s.log.Error("failed to persist leaderboard entry",
			"error", err, "session_id", sess.ID.String())
		return
	}
	s.log.Info("completion recorded",
		"session_id", sess.ID.String(),
		"owner_name", sess.OwnerName,
		"duration_secs", entry.DurationSecs)
}

func (s *leaderboardService) TopEntries(ctx context.Context, limit int) ([]types.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	return s.repo.Top(ctx, limit)
}

func (s *leaderboardService) Wipe(ctx context.Context) error {
	return s.repo.Wipe(ctx)
}
