package reconcile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crucial707/searchsync/internal/metrics"
	"github.com/crucial707/searchsync/internal/models"
	"github.com/crucial707/searchsync/internal/records"
)

// Reconciler applies declared records to a Registry.
type Reconciler struct {
	registry   Registry
	auditor    Auditor
	logger     *slog.Logger
	duplicates records.DuplicatePolicy
	app        string
	newRunID   func() string
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger; every run adds a run_id attribute.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithAuditor records every applied change.
func WithAuditor(a Auditor) Option {
	return func(r *Reconciler) { r.auditor = a }
}

// WithDuplicatePolicy sets how repeated names in the input are handled.
func WithDuplicatePolicy(p records.DuplicatePolicy) Option {
	return func(r *Reconciler) { r.duplicates = p }
}

// WithApp names the app namespace in audit entries.
func WithApp(app string) Option {
	return func(r *Reconciler) { r.app = app }
}

// WithRunIDs overrides run ID generation.
func WithRunIDs(fn func() string) Option {
	return func(r *Reconciler) { r.newRunID = fn }
}

// New returns a Reconciler over registry.
func New(registry Registry, opts ...Option) *Reconciler {
	r := &Reconciler{
		registry:   registry,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		duplicates: records.DuplicatesReject,
		newRunID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run makes the registry match recs in one pass:
//  1. list the registry;
//  2. create every unseen name, in input order;
//  3. list again so fresh entries are included;
//  4. apply the field changes Diff reports for each entry with a record;
//  5. delete every entry without a record.
//
// The first registry error aborts the pass. The returned Result describes
// what was applied up to that point.
func (r *Reconciler) Run(ctx context.Context, recs []models.SearchRecord) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: r.newRunID()}

	err := r.run(ctx, recs, res)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ObserveRun(status, time.Since(start).Seconds(), float64(time.Now().Unix()))
	return res, err
}

func (r *Reconciler) run(ctx context.Context, recs []models.SearchRecord, res *Result) error {
	logger := r.logger.With("run_id", res.RunID)

	set, err := records.Collect(recs, r.duplicates)
	if err != nil {
		return err
	}

	logger.Debug("existing saved searches")
	existing, err := r.registry.List(ctx)
	if err != nil {
		return fmt.Errorf("list saved searches: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, s := range existing {
		known[s.Name] = true
	}
	logger.Debug("found saved searches", "count", len(existing), "names", joinNames(existing))

	logger.Debug("parse records", "count", set.Len())
	created := make(map[string]bool)
	for _, rec := range set.Records() {
		if known[rec.Name] {
			logger.Debug("search already exists", "name", rec.Name)
			continue
		}
		if err := r.apply(ctx, logger, res, Change{Name: rec.Name, Action: ActionCreate, To: rec.Search}); err != nil {
			return err
		}
		created[rec.Name] = true
	}

	current, err := r.registry.List(ctx)
	if err != nil {
		return fmt.Errorf("list saved searches: %w", err)
	}

	logger.Debug("sync searches")
	var stale []string
	for _, entry := range current {
		rec, ok := set.Get(entry.Name)
		if !ok {
			logger.Debug("scheduled to be removed", "name", entry.Name)
			stale = append(stale, entry.Name)
			continue
		}

		changes := Diff(entry, rec)
		if len(changes) == 0 && !created[entry.Name] {
			res.Unchanged++
		}
		for _, ch := range changes {
			if err := r.apply(ctx, logger, res, ch); err != nil {
				return err
			}
		}
	}

	if len(stale) > 0 {
		logger.Debug("deleting old searches", "count", len(stale))
	}
	for _, name := range stale {
		if err := r.apply(ctx, logger, res, Change{Name: name, Action: ActionDelete}); err != nil {
			return err
		}
	}

	logger.Info("all done",
		"created", len(res.Created),
		"updated", len(res.Updated),
		"deleted", len(res.Deleted),
		"unchanged", res.Unchanged)
	return nil
}

// Plan computes the changes Run would apply without mutating the registry.
// Names that would be created are compared against the defaults splunkd
// gives a fresh entry.
func (r *Reconciler) Plan(ctx context.Context, recs []models.SearchRecord) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: r.newRunID(), DryRun: true}

	set, err := records.Collect(recs, r.duplicates)
	if err != nil {
		return res, err
	}

	existing, err := r.registry.List(ctx)
	if err != nil {
		return res, fmt.Errorf("list saved searches: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, s := range existing {
		known[s.Name] = true
	}

	var fresh []models.SearchRecord
	for _, rec := range set.Records() {
		if !known[rec.Name] {
			res.record(Change{Name: rec.Name, Action: ActionCreate, To: rec.Search})
			fresh = append(fresh, rec)
		}
	}

	var stale []string
	for _, entry := range existing {
		rec, ok := set.Get(entry.Name)
		if !ok {
			stale = append(stale, entry.Name)
			continue
		}
		changes := Diff(entry, rec)
		if len(changes) == 0 {
			res.Unchanged++
		}
		for _, ch := range changes {
			res.record(ch)
		}
	}
	for _, rec := range fresh {
		for _, ch := range Diff(freshEntry(rec), rec) {
			res.record(ch)
		}
	}
	for _, name := range stale {
		res.record(Change{Name: name, Action: ActionDelete})
	}

	metrics.ObserveRun("dry_run", time.Since(start).Seconds(), float64(time.Now().Unix()))
	return res, nil
}

func (r *Reconciler) apply(ctx context.Context, logger *slog.Logger, res *Result, ch Change) error {
	logger.Info(actionMessages[ch.Action], "name", ch.Name)

	var err error
	switch ch.Action {
	case ActionCreate:
		err = r.registry.Create(ctx, ch.Name, ch.To)
	case ActionEnable:
		err = r.registry.Enable(ctx, ch.Name)
	case ActionDisable:
		err = r.registry.Disable(ctx, ch.Name)
	case ActionUpdateSearch:
		search := ch.To
		err = r.registry.Update(ctx, ch.Name, models.SavedSearchUpdate{Search: &search})
	case ActionUpdateCron:
		cron := ch.To
		err = r.registry.Update(ctx, ch.Name, models.SavedSearchUpdate{CronSchedule: &cron})
	case ActionSchedule, ActionUnschedule:
		scheduled := ch.Action == ActionSchedule
		err = r.registry.Update(ctx, ch.Name, models.SavedSearchUpdate{IsScheduled: &scheduled})
	case ActionDelete:
		err = r.registry.Delete(ctx, ch.Name)
	default:
		err = fmt.Errorf("unknown action %q", ch.Action)
	}
	if err != nil {
		return fmt.Errorf("%s %q: %w", ch.Action, ch.Name, err)
	}

	res.record(ch)
	metrics.IncChanges(string(ch.Action))
	r.audit(ctx, logger, res.RunID, ch)
	return nil
}

func (r *Reconciler) audit(ctx context.Context, logger *slog.Logger, runID string, ch Change) {
	if r.auditor == nil {
		return
	}
	entry := models.AuditEntry{
		RunID:      runID,
		App:        r.app,
		Action:     string(ch.Action),
		SearchName: ch.Name,
		Details:    auditDetails(ch),
	}
	if err := r.auditor.Record(ctx, entry); err != nil {
		logger.Warn("audit record failed", "name", ch.Name, "action", ch.Action, "error", err)
	}
}

func auditDetails(ch Change) string {
	switch ch.Action {
	case ActionCreate:
		return "search=" + ch.To
	case ActionUpdateSearch, ActionUpdateCron:
		return fmt.Sprintf("%q -> %q", ch.From, ch.To)
	default:
		return ""
	}
}

func joinNames(list []models.SavedSearch) string {
	names := make([]string, 0, len(list))
	for _, s := range list {
		names = append(names, s.Name)
	}
	return strings.Join(names, ", ")
}
