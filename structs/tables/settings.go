package tables

import (
	"time"

	"github.com/uptrace/bun"
)

// SettingsID is the primary key of the single settings row.
const SettingsID = 1

// Settings holds the shared product description shown on demand.
type Settings struct {
	bun.BaseModel   `bun:"table:settings,alias:st"`
	ID              int64     `bun:"id,pk" json:"id"`
	DescriptionText string    `bun:"description_text,notnull" json:"description_text"`
	PhotoRef        string    `bun:"photo_ref" json:"photo_ref,omitempty"`
	VideoRef        string    `bun:"video_ref" json:"video_ref,omitempty"`
	UpdatedAt       time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}
