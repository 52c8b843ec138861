package reconcile

// Result summarizes one reconciliation pass. For a dry run the changes are
// the ones that would have been applied.
type Result struct {
	RunID     string   `json:"run_id"`
	DryRun    bool     `json:"dry_run"`
	Created   []string `json:"created"`
	Updated   []string `json:"updated"`
	Deleted   []string `json:"deleted"`
	Unchanged int      `json:"unchanged"`
	Changes   []Change `json:"changes"`
}

func (r *Result) record(ch Change) {
	r.Changes = append(r.Changes, ch)
	switch ch.Action {
	case ActionCreate:
		r.Created = append(r.Created, ch.Name)
	case ActionDelete:
		r.Deleted = append(r.Deleted, ch.Name)
	default:
		if n := len(r.Updated); n == 0 || r.Updated[n-1] != ch.Name {
			r.Updated = append(r.Updated, ch.Name)
		}
	}
}

// Empty reports whether the pass needed no registry change.
func (r *Result) Empty() bool {
	return len(r.Changes) == 0
}
