package reference

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/tbxark/meetform/types"
)

// SelectFunc receives every confirmed selection of a resolver.
type SelectFunc func(queryParam string, sel types.Selection)

// Resolver turns a Spec into a live option list and tracks the user's selection.
type Resolver struct {
	spec     Spec
	onSelect SelectFunc
	logger   *slog.Logger

	once      sync.Once
	mu        sync.Mutex
	options   []types.Selection
	loaded    bool
	loadErr   error
	input     string
	selection types.Selection
}

func NewResolver(spec Spec, onSelect SelectFunc, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if spec.Default == (types.Selection{}) {
		spec.Default = Unselected
	}
	return &Resolver{
		spec:      spec,
		onSelect:  onSelect,
		logger:    logger,
		input:     spec.Default.Text,
		selection: spec.Default,
	}
}

func (r *Resolver) Spec() Spec {
	return r.spec
}

// Load reads the option list once. Concurrent and later calls wait for that read and
// return its error.
func (r *Resolver) Load(ctx context.Context, lister Lister) error {
	r.once.Do(func() {
		r.load(ctx, lister)
	})
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadErr
}

func (r *Resolver) load(ctx context.Context, lister Lister) {
	recs, err := lister.List(ctx, r.spec.Lookup.Route, r.spec.query())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = true
	if err != nil {
		r.loadErr = fmt.Errorf("load %s options: %w", r.spec.label(), err)
		return
	}
	options := make([]types.Selection, 0, len(recs))
	for _, rec := range recs {
		pk, ok := rec.PK()
		if !ok {
			r.logger.Warn("lookup record without pk", "relation", r.spec.Lookup.RelationName)
			continue
		}
		options = append(options, types.Selection{Text: r.spec.display(rec), ID: pk})
	}
	r.options = options
	r.logger.Debug("reference options loaded", "relation", r.spec.Lookup.RelationName, "options", len(options))
}

// Loaded reports whether Load has finished, and its error.
func (r *Resolver) Loaded() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded, r.loadErr
}

// Options returns the full option list in response order.
func (r *Resolver) Options() []types.Selection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Selection(nil), r.options...)
}

// Filter returns the options whose text contains text, ignoring case.
func (r *Resolver) Filter(text string) []types.Selection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filterLocked(text)
}

func (r *Resolver) filterLocked(text string) []types.Selection {
	needle := strings.ToLower(text)
	out := make([]types.Selection, 0, len(r.options))
	for _, opt := range r.options {
		if strings.Contains(strings.ToLower(opt.Text), needle) {
			out = append(out, opt)
		}
	}
	return out
}

// Type records a keystroke's resulting text and returns the dropdown to show.
func (r *Resolver) Type(text string) []types.Selection {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.input = text
	return r.filterLocked(text)
}

// Input is the text currently in the box.
func (r *Resolver) Input() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.input
}

// Selection is the last confirmed selection.
func (r *Resolver) Selection() types.Selection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selection
}

// Choose confirms a clicked option.
func (r *Resolver) Choose(opt types.Selection) {
	r.mu.Lock()
	r.input = opt.Text
	r.selection = opt
	r.mu.Unlock()
	r.report(opt)
}

// Preselect selects the option with id without user input. It reports false when the
// option list has no such id.
func (r *Resolver) Preselect(id int64) bool {
	r.mu.Lock()
	var found *types.Selection
	for i := range r.options {
		if r.options[i].ID == id {
			found = &r.options[i]
			break
		}
	}
	if found == nil {
		r.mu.Unlock()
		return false
	}
	sel := *found
	r.input = sel.Text
	r.selection = sel
	r.mu.Unlock()
	r.report(sel)
	return true
}

// Reset puts the box back to the option with id, or to the default when there is no
// such option, without reporting it.
func (r *Resolver) Reset(id int64) types.Selection {
	r.mu.Lock()
	defer r.mu.Unlock()
	sel := r.spec.Default
	for _, opt := range r.options {
		if opt.ID == id && id != types.UnresolvedID {
			sel = opt
			break
		}
	}
	r.input = sel.Text
	r.selection = sel
	return sel
}

// Blur confirms the typed text when the box loses focus and returns the selection.
// An exact match selects that option. Otherwise, unless free text is enabled, the
// selection snaps to the option sharing the longest run of characters with the
// input, or to the default when no option shares a run of two characters. A one
// character input only needs that character.
func (r *Resolver) Blur() types.Selection {
	r.mu.Lock()
	sel := r.resolveLocked(r.input)
	r.input = sel.Text
	r.selection = sel
	r.mu.Unlock()
	r.report(sel)
	return sel
}

func (r *Resolver) resolveLocked(input string) types.Selection {
	for _, opt := range r.options {
		if strings.EqualFold(opt.Text, input) {
			return opt
		}
	}
	if r.spec.OtherEnabled {
		return types.Selection{Text: input, ID: types.UnresolvedID}
	}
	needle := strings.ToLower(input)
	best, bestLen := -1, max(1, min(2, utf8.RuneCountInString(needle)))-1
	for i, opt := range r.options {
		if n := longestCommonSubstring(needle, strings.ToLower(opt.Text)); n > bestLen {
			best, bestLen = i, n
		}
	}
	if best < 0 {
		return r.spec.Default
	}
	return r.options[best]
}

func (r *Resolver) report(sel types.Selection) {
	if r.onSelect != nil {
		r.onSelect(r.spec.QueryParam, sel)
	}
}

// Unresolved returns the error that blocks submission while a mandatory reference
// has no record selected, or nil.
func (r *Resolver) Unresolved(id int64) *types.FieldError {
	if r.spec.Optional || id != types.UnresolvedID {
		return nil
	}
	label := r.spec.label()
	return &types.FieldError{
		Title:          strings.ToUpper(label) + " NOT SELECTED",
		Description:    fmt.Sprintf("Choose a %s from the list.", label),
		AffectedFields: []string{r.spec.QueryParam},
		Recommendation: "Start typing and pick one of the suggested options.",
	}
}

func longestCommonSubstring(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	best := 0
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > best {
					best = cur[j]
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return best
}
