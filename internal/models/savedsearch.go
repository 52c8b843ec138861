package models

// SearchRecord is one declared saved search, parsed from an input row.
type SearchRecord struct {
	Name    string `json:"name" yaml:"name"`
	Cron    string `json:"cron" yaml:"cron"`
	Search  string `json:"search" yaml:"search"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// SavedSearch is a saved search entry as registered in splunkd.
type SavedSearch struct {
	Name         string `json:"name"`
	App          string `json:"app"`
	Owner        string `json:"owner"`
	Search       string `json:"search"`
	Disabled     bool   `json:"disabled"`
	IsScheduled  bool   `json:"is_scheduled"`
	CronSchedule string `json:"cron_schedule"`
}

// Enabled reports whether the entry is not disabled.
func (s SavedSearch) Enabled() bool {
	return !s.Disabled
}

// SavedSearchUpdate holds the attributes to change on an entry.
// Nil fields are left untouched.
type SavedSearchUpdate struct {
	Search       *string
	CronSchedule *string
	IsScheduled  *bool
}

// Empty reports whether the update carries no field.
func (u SavedSearchUpdate) Empty() bool {
	return u.Search == nil && u.CronSchedule == nil && u.IsScheduled == nil
}

// OutputRow is one row written back to the search pipeline.
// Rows that only carry a diagnostic line leave the record fields empty.
type OutputRow struct {
	Name     string `json:"name"`
	Cron     string `json:"cron"`
	Search   string `json:"search"`
	Enabled  bool   `json:"enabled"`
	DebugLog string `json:"debug_log,omitempty"`
	LogOnly  bool   `json:"-"`
}

// RowFromRecord builds the normalized output row for a declared record.
func RowFromRecord(rec SearchRecord) OutputRow {
	return OutputRow{
		Name:    rec.Name,
		Cron:    rec.Cron,
		Search:  rec.Search,
		Enabled: rec.Enabled,
	}
}

// LogRow builds a row that only carries a diagnostic line.
func LogRow(line string) OutputRow {
	return OutputRow{DebugLog: line, LogOnly: true}
}
