package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Achievement is a catalog milestone against a single user statistic.
// A nil Threshold marks an achievement that the automatic check never
// unlocks (badge-only, granted through mission rewards).
type Achievement struct {
	bun.BaseModel `bun:"table:achievements,alias:a"`

	ID          string `bun:"id,pk"`
	Name        string `bun:"name,notnull,unique"`
	Description string `bun:"description,notnull"`
	Icon        string `bun:"icon"`
	MetricKind  string `bun:"metric_kind,notnull"`
	Threshold   *int64 `bun:"threshold"`
	Category    string `bun:"category,notnull"`
	IsSecret    bool   `bun:"is_secret,notnull,default:false"`

	CreatedAt time.Time  `bun:"created_at,notnull"`
	UpdatedAt time.Time  `bun:"updated_at,notnull"`
	DeletedAt *time.Time `bun:"deleted_at"`
}
