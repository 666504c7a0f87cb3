package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Daily returns today's top earners. The caller's own row is
	// flagged and left unmasked.
	Daily(ctx context.Context, callerID snowflake.ID, at time.Time, limit int) ([]RankEntry, error)
}
