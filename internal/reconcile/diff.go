// Package reconcile brings the saved searches of one app in line with a
// declared list of records.
package reconcile

import (
	"fmt"

	"github.com/crucial707/searchsync/internal/models"
)

// Action names one registry call.
type Action string

const (
	ActionCreate       Action = "create"
	ActionEnable       Action = "enable"
	ActionDisable      Action = "disable"
	ActionUpdateSearch Action = "update_search"
	ActionUpdateCron   Action = "update_cron"
	ActionSchedule     Action = "schedule"
	ActionUnschedule   Action = "unschedule"
	ActionDelete       Action = "delete"
)

var actionMessages = map[Action]string{
	ActionCreate:       "creating search",
	ActionEnable:       "enabling",
	ActionDisable:      "disabling",
	ActionUpdateSearch: "updating search",
	ActionUpdateCron:   "updating cron",
	ActionSchedule:     "enabling schedule",
	ActionUnschedule:   "disabling schedule",
	ActionDelete:       "deleting search",
}

// Change is one registry call for one saved search.
type Change struct {
	Name   string `json:"name"`
	Action Action `json:"action"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
}

func (c Change) String() string {
	switch c.Action {
	case ActionUpdateSearch, ActionUpdateCron:
		return fmt.Sprintf("%s %q: %q -> %q", c.Action, c.Name, c.From, c.To)
	default:
		return fmt.Sprintf("%s %q", c.Action, c.Name)
	}
}

// Diff returns the calls that bring entry in line with rec, in the order
// they are applied: enabled state, search text, cron schedule, then the
// scheduling flag. The scheduling flag follows the desired enabled state and
// is compared independently of the disabled flag.
func Diff(entry models.SavedSearch, rec models.SearchRecord) []Change {
	var changes []Change

	if rec.Enabled != entry.Enabled() {
		action := ActionDisable
		if rec.Enabled {
			action = ActionEnable
		}
		changes = append(changes, Change{Name: entry.Name, Action: action})
	}

	if entry.Search != rec.Search {
		changes = append(changes, Change{Name: entry.Name, Action: ActionUpdateSearch, From: entry.Search, To: rec.Search})
	}

	if entry.CronSchedule != rec.Cron {
		changes = append(changes, Change{Name: entry.Name, Action: ActionUpdateCron, From: entry.CronSchedule, To: rec.Cron})
	}

	if rec.Enabled != entry.IsScheduled {
		action := ActionUnschedule
		if rec.Enabled {
			action = ActionSchedule
		}
		changes = append(changes, Change{Name: entry.Name, Action: action})
	}

	return changes
}

// freshEntry is what splunkd holds right after a create with name and search.
func freshEntry(rec models.SearchRecord) models.SavedSearch {
	return models.SavedSearch{Name: rec.Name, Search: rec.Search}
}
