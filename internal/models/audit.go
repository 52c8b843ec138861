package models

import "time"

// AuditEntry represents one applied registry change.
type AuditEntry struct {
	ID         int       `json:"id"`
	RunID      string    `json:"run_id"`
	App        string    `json:"app"`
	Action     string    `json:"action"` // create, enable, disable, update_search, update_cron, schedule, unschedule, delete
	SearchName string    `json:"search_name"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
