package splunk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/crucial707/searchsync/internal/models"
)

// flexBool decodes the boolean shapes splunkd emits: JSON booleans,
// numbers, and "0"/"1"/"true"/"false" strings.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = false
		return nil
	}

	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}

	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes", "y", "on":
		*b = true
	case "0", "false", "f", "no", "n", "off", "":
		*b = false
	default:
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			*b = n != 0
			return nil
		}
		return fmt.Errorf("splunk: cannot decode %s as boolean", data)
	}
	return nil
}

type feed struct {
	Entry    []entry   `json:"entry"`
	Messages []Message `json:"messages"`
}

type entry struct {
	Name    string       `json:"name"`
	ACL     acl          `json:"acl"`
	Content entryContent `json:"content"`
}

type acl struct {
	App   string `json:"app"`
	Owner string `json:"owner"`
}

type entryContent struct {
	Search       string   `json:"search"`
	Disabled     flexBool `json:"disabled"`
	IsScheduled  flexBool `json:"is_scheduled"`
	CronSchedule string   `json:"cron_schedule"`
}

func (e entry) toModel() models.SavedSearch {
	return models.SavedSearch{
		Name:         e.Name,
		App:          e.ACL.App,
		Owner:        e.ACL.Owner,
		Search:       e.Content.Search,
		Disabled:     bool(e.Content.Disabled),
		IsScheduled:  bool(e.Content.IsScheduled),
		CronSchedule: e.Content.CronSchedule,
	}
}

type loginResponse struct {
	SessionKey string `json:"sessionKey"`
}

// formBool encodes a boolean the way splunkd form endpoints expect.
func formBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
