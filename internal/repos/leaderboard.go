package repos

import (
	"context"
	"sort"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/moneybadgers/walkthrough-backend/internal/logger"
	"github.com/moneybadgers/walkthrough-backend/internal/types"
)

// LeaderboardRepo persists completed runs. Insert is idempotent per
// session: replaying the same completion must not add a second row.
type LeaderboardRepo interface {
	Insert(ctx context.Context, entry *types.LeaderboardEntry) error
	Top(ctx context.Context, limit int) ([]types.LeaderboardEntry, error)
	Wipe(ctx context.Context) error
}

type leaderboardRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLeaderboardRepo(db *gorm.DB, baseLog *logger.Logger) LeaderboardRepo {
	return &leaderboardRepo{db: db, log: baseLog.With("repo", "LeaderboardRepo")}
}

func (r *leaderboardRepo) Insert(ctx context.Context, entry *types.LeaderboardEntry) error {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoNothing: true,
		}).
		Create(entry)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		r.log.Debug("duplicate completion ignored", "session_id", entry.SessionID.String())
	}
	return nil
}

func (r *leaderboardRepo) Top(ctx context.Context, limit int) ([]types.LeaderboardEntry, error) {
	var out []types.LeaderboardEntry
	err := r.db.WithContext(ctx).
		Order("duration_secs asc").
		Order("completed_at asc").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *leaderboardRepo) Wipe(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&types.LeaderboardEntry{}).Error
}

// memoryLeaderboardRepo backs the leaderboard when no database is
// configured. Results do not survive a restart.
type memoryLeaderboardRepo struct {
	log *logger.Logger

	mu      sync.Mutex
	entries []types.LeaderboardEntry
}

func NewMemoryLeaderboardRepo(baseLog *logger.Logger) LeaderboardRepo {
	return &memoryLeaderboardRepo{log: baseLog.With("repo", "MemoryLeaderboardRepo")}
}

func (r *memoryLeaderboardRepo) Insert(ctx context.Context, entry *types.LeaderboardEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.SessionID == entry.SessionID {
			r.log.Debug("duplicate completion ignored", "session_id", entry.SessionID.String())
			return nil
		}
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memoryLeaderboardRepo) Top(ctx context.Context, limit int) ([]types.LeaderboardEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.LeaderboardEntry, len(r.entries))
	copy(out, r.entries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DurationSecs != out[j].DurationSecs {
			return out[i].DurationSecs < out[j].DurationSecs
		}
		return out[i].CompletedAt.Before(out[j].CompletedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryLeaderboardRepo) Wipe(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
	return nil
}
