package protocol

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	slogmulti "github.com/samber/slog-multi"

	"github.com/crucial707/searchsync/internal/debuglog"
	"github.com/crucial707/searchsync/internal/models"
	"github.com/crucial707/searchsync/internal/reconcile"
	"github.com/crucial707/searchsync/internal/records"
)

// Runner reconciles the records collected from the pipeline.
type Runner interface {
	Run(ctx context.Context, recs []models.SearchRecord) (*reconcile.Result, error)
}

// RunnerFactory builds the Runner for one invocation from the search that
// invoked the command.
type RunnerFactory func(ctx context.Context, info SearchInfo, args Args, logger *slog.Logger) (Runner, error)

// Options configures Serve.
type Options struct {
	// Logger receives every log record; it should write to stderr, which
	// splunkd copies to search.log. Nil discards.
	Logger    *slog.Logger
	NewRunner RunnerFactory
}

// invocation is the state of one command execution.
type invocation struct {
	out     io.Writer
	info    SearchInfo
	args    Args
	buf     *debuglog.Buffer
	base    *slog.Logger
	logger  *slog.Logger
	row     int
	records []models.SearchRecord
}

// Serve answers splunkd on in/out until the finished chunk has been
// handled or in ends. Rows are re-emitted as soon as their chunk arrives;
// the reconciliation runs once, when the finished chunk arrives.
//
// When the verbose argument is set, log records are also kept in a buffer
// owned by this invocation and emitted as debug_log rows after the pass.
// Any failure is reported to splunkd as an ERROR message and returned.
func Serve(ctx context.Context, in io.Reader, out io.Writer, opts Options) error {
	if opts.NewRunner == nil {
		return errors.New("protocol: no runner factory")
	}
	base := opts.Logger
	if base == nil {
		base = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := bufio.NewReader(in)
	chunk, err := ReadChunk(r)
	if err != nil {
		return fmt.Errorf("read getinfo: %w", err)
	}
	meta, err := decodeMetadata(chunk.Metadata)
	if err != nil {
		return err
	}
	if meta.Action != ActionGetInfo {
		return fmt.Errorf("expected %s, got action %q", ActionGetInfo, meta.Action)
	}

	inv := &invocation{out: out}
	if meta.SearchInfo != nil {
		inv.info = *meta.SearchInfo
	}
	inv.base = base.With("sid", inv.info.SID)
	inv.logger = inv.base
	inv.args, err = ParseArgs(inv.info.Args)
	if err != nil {
		reply := GetInfoReply{Type: "stateful", Finished: true, Inspector: errorInspector(err)}
		if werr := WriteChunk(out, reply, nil); werr != nil {
			return errors.Join(err, werr)
		}
		return err
	}
	if inv.args.Verbose {
		inv.buf = debuglog.New(slog.LevelDebug)
		inv.logger = slog.New(slogmulti.Fanout(inv.base.Handler(), inv.buf))
	}
	inv.logger.Debug("getinfo", "app", inv.info.App, "args", inv.info.Args)

	reply := GetInfoReply{
		Type:           "stateful",
		RequiredFields: OutputFields(false),
	}
	if err := WriteChunk(out, reply, nil); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return inv.fail(nil, err)
		}
		chunk, err := ReadChunk(r)
		if errors.Is(err, io.EOF) {
			// The input may be partial; reconciling it would delete the rest.
			return inv.fail(nil, fmt.Errorf("input ended before the finished chunk: %w", io.ErrUnexpectedEOF))
		}
		if err != nil {
			return inv.fail(nil, err)
		}
		meta, err := decodeMetadata(chunk.Metadata)
		if err != nil {
			return inv.fail(nil, err)
		}

		rows, err := inv.collect(chunk.Body)
		if err != nil {
			return inv.fail(rows, err)
		}
		if meta.Finished {
			return inv.finish(ctx, opts.NewRunner, rows)
		}
		if err := inv.reply(ExecuteReply{}, rows); err != nil {
			return err
		}
	}
}

// collect validates the rows of one body and returns their normalized
// output rows. Rows before an invalid one are still returned.
func (inv *invocation) collect(body []byte) ([]models.OutputRow, error) {
	raw, err := DecodeRows(body)
	if err != nil {
		return nil, err
	}
	out := make([]models.OutputRow, 0, len(raw))
	for _, r := range raw {
		inv.row++
		rec, err := records.FromRow(inv.row, r)
		if err != nil {
			return out, err
		}
		inv.records = append(inv.records, rec)
		out = append(out, models.RowFromRecord(rec))
	}
	return out, nil
}

func (inv *invocation) finish(ctx context.Context, newRunner RunnerFactory, rows []models.OutputRow) error {
	runner, err := newRunner(ctx, inv.info, inv.args, inv.logger)
	if err != nil {
		return inv.fail(rows, err)
	}
	if _, err := runner.Run(ctx, inv.records); err != nil {
		return inv.fail(rows, err)
	}
	return inv.reply(ExecuteReply{Finished: true}, inv.withLogRows(rows))
}

// fail reports err to splunkd on a finished reply, after any rows already
// normalized, and returns it.
func (inv *invocation) fail(rows []models.OutputRow, err error) error {
	inv.base.Error("command failed", "error", err)
	if inv.buf != nil {
		inv.buf.Append(fmt.Sprintf("ERROR: %v", err))
	}
	reply := ExecuteReply{Finished: true, Inspector: errorInspector(err)}
	if werr := inv.reply(reply, inv.withLogRows(rows)); werr != nil {
		return errors.Join(err, werr)
	}
	return err
}

func (inv *invocation) withLogRows(rows []models.OutputRow) []models.OutputRow {
	if inv.buf == nil {
		return rows
	}
	for _, line := range inv.buf.Drain() {
		rows = append(rows, models.LogRow(line))
	}
	return rows
}

func (inv *invocation) reply(meta ExecuteReply, rows []models.OutputRow) error {
	body, err := EncodeRows(rows, inv.args.Verbose)
	if err != nil {
		return err
	}
	return WriteChunk(inv.out, meta, body)
}
