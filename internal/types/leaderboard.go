package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// LeaderboardEntry records one completed basket run. Created once per
// session, immutable thereafter, retained across session resets. The
// unique session_id index is what makes recording idempotent.
type LeaderboardEntry struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"-"`
	SessionID    uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null;column:session_id" json:"-"`
	OwnerName    string         `gorm:"not null;column:owner_name" json:"ownerName"`
	DurationSecs int64          `gorm:"not null;column:duration_secs" json:"durationSecs"`
	CompletedAt  time.Time      `gorm:"not null;column:completed_at" json:"completedAt"`
	Items        datatypes.JSON `gorm:"column:items" json:"-"`
}

func (LeaderboardEntry) TableName() string {
	return "leaderboard_entry"
}
