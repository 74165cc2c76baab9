package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/tbxark/meetform"
	"github.com/tbxark/meetform/types"
)

// Entry is one journaled transition.
type Entry struct {
	At    time.Time       `json:"at"`
	Event string          `json:"event"`
	From  meetform.Status `json:"from"`
	To    meetform.Status `json:"to"`
	Pane  types.Pane      `json:"pane,omitempty"`
	Title string          `json:"title,omitempty"`
}

type Trimmer interface {
	Trim(entries []Entry) []Entry
}

// KeepFailuresLastNTrimmer keeps every entry that showed an error and the last N
// other entries. When N <= 0, it keeps only the error entries.
type KeepFailuresLastNTrimmer struct {
	N int
}

func (t KeepFailuresLastNTrimmer) Trim(entries []Entry) []Entry {
	if len(entries) == 0 {
		return entries
	}
	isFailure := func(e Entry) bool { return e.Pane == types.PaneError }

	others := make([]int, 0, len(entries))
	for i, e := range entries {
		if !isFailure(e) {
			others = append(others, i)
		}
	}
	if t.N > 0 && len(others) <= t.N {
		return entries
	}

	keep := make(map[int]struct{}, max(t.N, 0))
	if t.N > 0 {
		for _, i := range others[len(others)-t.N:] {
			keep[i] = struct{}{}
		}
	}
	out := make([]Entry, 0, len(entries))
	for i, e := range entries {
		if _, ok := keep[i]; ok || isFailure(e) {
			out = append(out, e)
		}
	}
	return out
}

// Journal records the transitions of each form, keyed like the Registry.
type Journal struct {
	entries *slots[[]Entry]
	trimmer Trimmer
	logger  *slog.Logger
	now     func() time.Time
}

func NewJournal(trimmer Trimmer, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{
		entries: newSlots[[]Entry](),
		trimmer: trimmer,
		logger:  logger,
		now:     time.Now,
	}
}

// Observer returns an engine observer appending to the journal of ctx's form.
func (j *Journal) Observer(ctx context.Context) meetform.Observer {
	return func(step meetform.Step) {
		entry := Entry{
			At:    j.now(),
			Event: step.Event.Name(),
			From:  step.From.Status,
			To:    step.To.Status,
			Pane:  step.To.Pane(),
		}
		switch entry.Pane {
		case types.PaneError:
			entry.Title = step.To.Error.Title
		case types.PaneDuplicate:
			entry.Title = step.To.Duplicate.Title
		case types.PaneDestructive:
			entry.Title = step.To.Destructive.Title
		}
		if _, err := j.Append(ctx, entry); err != nil {
			j.logger.Warn("journal append failed", "error", err)
		}
	}
}

func (j *Journal) Load(ctx context.Context) ([]Entry, error) {
	entries, _, err := j.entries.get(ctx)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Append adds entries, trims, saves and returns the saved journal.
func (j *Journal) Append(ctx context.Context, entries ...Entry) ([]Entry, error) {
	var out []Entry
	_, _, err := j.entries.update(ctx, func(hist []Entry, _ bool) []Entry {
		out = make([]Entry, 0, len(hist)+len(entries))
		out = append(out, hist...)
		out = append(out, entries...)
		if j.trimmer != nil {
			out = j.trimmer.Trim(out)
		}
		return out
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (j *Journal) Clear(ctx context.Context) error {
	_, _, err := j.entries.take(ctx)
	return err
}
