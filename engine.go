package meetform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/url"
	"strconv"
	"sync"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"
	"golang.org/x/sync/errgroup"

	"github.com/tbxark/meetform/field"
	"github.com/tbxark/meetform/patch"
	"github.com/tbxark/meetform/protocol"
	"github.com/tbxark/meetform/reference"
	"github.com/tbxark/meetform/types"
)

// Step is one applied transition.
type Step struct {
	From  State
	To    State
	Event Event
}

// Observer is notified of every applied transition. It runs with the engine locked
// and must not call back into the engine.
type Observer func(Step)

// Outcome is what a user action produced.
type Outcome struct {
	State State
	// Record is the saved record after a successful submission.
	Record protocol.Record
	// Navigate is the route to open next, if the form navigated away.
	Navigate string
}

type resumeAction int

const (
	resumeNone resumeAction = iota
	resumeSubmit
	resumeKeepNew
	resumeDelete
)

type engineOptions struct {
	record    protocol.Record
	forward   string
	logger    *slog.Logger
	observers []Observer
	lookup    reference.Lister
}

type Option func(*engineOptions)

// WithRecord opens the form on an existing record, in view mode.
func WithRecord(rec protocol.Record) Option {
	return func(o *engineOptions) {
		o.record = rec
	}
}

// WithForward sets where a creation form navigates after success or cancellation.
func WithForward(route string) Option {
	return func(o *engineOptions) {
		o.forward = route
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

func WithObserver(observer Observer) Option {
	return func(o *engineOptions) {
		o.observers = append(o.observers, observer)
	}
}

// WithLookup sets where reference options are read from. By default the backend is
// used when it can list records.
func WithLookup(lookup reference.Lister) Option {
	return func(o *engineOptions) {
		o.lookup = lookup
	}
}

// Engine drives one form instance through editing, validation and submission.
type Engine struct {
	spec      FormSpec
	backend   Backend
	lookup    reference.Lister
	logger    *slog.Logger
	observers []Observer
	forward   string
	resolvers []*reference.Resolver

	mu        sync.Mutex
	state     State
	data      field.Data
	record    protocol.Record
	recordID  int64
	baseline  map[string]any
	handling  types.DuplicateHandling
	resume    resumeAction
	unmounted bool
}

func New(spec FormSpec, backend Backend, opts ...Option) (*Engine, error) {
	if err := spec.Check(); err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	o := &engineOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.lookup == nil {
		o.lookup, _ = backend.(reference.Lister)
	}
	e := &Engine{
		spec:      spec,
		backend:   backend,
		lookup:    o.lookup,
		logger:    o.logger.With("form", spec.Name),
		observers: o.observers,
		forward:   o.forward,
		state:     editingState(),
		data:      field.NewData(),
		handling:  types.HandlingUnhandled,
	}
	for _, ref := range spec.References {
		r := reference.NewResolver(ref, e.selectReference, e.logger)
		e.resolvers = append(e.resolvers, r)
		e.data.References[ref.QueryParam] = r.Selection().ID
	}
	if o.record != nil {
		if err := e.load(o.record); err != nil {
			return nil, err
		}
		e.state = viewingState()
	}
	return e, nil
}

func (e *Engine) load(rec protocol.Record) error {
	id, ok := rec.PK()
	if !ok {
		id, ok = rec.Int(e.spec.IDParam)
	}
	if !ok {
		return fmt.Errorf("%s record has no primary key", e.spec.Name)
	}
	ops := patch.Prefill(e.spec.Rows.Names(), e.data.Values, rec)
	values, err := patch.Apply(e.data.Values, ops)
	if err != nil {
		return fmt.Errorf("prefill %s: %w", e.spec.Name, err)
	}
	e.data.Values = values
	for _, r := range e.resolvers {
		param := r.Spec().QueryParam
		if ref, ok := rec.Int(param); ok {
			e.data.References[param] = ref
		}
	}
	e.record = maps.Clone(rec)
	e.recordID = id
	e.baseline = e.sensitive(rec)
	e.logger.Debug("record loaded", "id", id, "prefilled", len(ops))
	return nil
}

func (e *Engine) sensitive(values map[string]any) map[string]any {
	out := make(map[string]any)
	for _, name := range e.spec.Rows.DuplicateSensitive() {
		out[name] = values[name]
	}
	return out
}

// Mount loads every reference's options concurrently, then selects the loaded
// record's references.
func (e *Engine) Mount(ctx context.Context) error {
	if len(e.resolvers) == 0 {
		return nil
	}
	if e.lookup == nil {
		return fmt.Errorf("form %s has references but no lookup", e.spec.Name)
	}
	var g errgroup.Group
	for _, r := range e.resolvers {
		g.Go(func() error {
			return r.Load(ctx, e.lookup)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	e.mu.Lock()
	refs := maps.Clone(e.data.References)
	editing := e.record != nil
	e.mu.Unlock()
	if !editing {
		return nil
	}
	for _, r := range e.resolvers {
		param := r.Spec().QueryParam
		id := refs[param]
		if id == types.UnresolvedID {
			continue
		}
		if !r.Preselect(id) {
			e.logger.Warn("record references a missing option", "param", param, "id", id)
		}
	}
	return nil
}

func (e *Engine) selectReference(param string, sel types.Selection) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.unmounted {
		return
	}
	e.data.References[param] = sel.ID
	e.logger.Debug("reference selected", "param", param, "id", sel.ID, "text", sel.Text)
}

// Reference returns the resolver of a reference field, or nil.
func (e *Engine) Reference(param string) *reference.Resolver {
	for _, r := range e.resolvers {
		if r.Spec().QueryParam == param {
			return r
		}
	}
	return nil
}

func (e *Engine) References() []*reference.Resolver {
	return append([]*reference.Resolver(nil), e.resolvers...)
}

func (e *Engine) Spec() FormSpec {
	return e.spec
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Data returns a snapshot of the unvalidated form data.
func (e *Engine) Data() field.Data {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.data.Clone()
}

// Record returns the loaded record, or nil for creation forms.
func (e *Engine) Record() protocol.Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	return maps.Clone(e.record)
}

// Unmount discards the form. Responses that arrive afterwards are dropped.
func (e *Engine) Unmount() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.unmounted = true
	e.logger.Debug("form unmounted", "status", e.state.Status)
}

func (e *Engine) usableLocked() error {
	if e.unmounted {
		return ErrUnmounted
	}
	if e.state.Status == StatusClosed {
		return ErrClosed
	}
	return nil
}

func (e *Engine) fireLocked(ev Event) error {
	next, err := Transition(e.state, ev)
	if err != nil {
		e.logger.Debug("transition rejected", "status", e.state.Status, "event", ev.Name(), "error", err)
		return err
	}
	step := Step{From: e.state, To: next, Event: ev}
	e.state = next
	e.logger.Debug("transition", "from", step.From.Status, "to", next.Status, "event", ev.Name())
	for _, o := range e.observers {
		o(step)
	}
	return nil
}

func (e *Engine) outcomeLocked() Outcome {
	return Outcome{State: e.state}
}

func (e *Engine) Edit() (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.usableLocked(); err != nil {
		return Outcome{}, err
	}
	if err := e.fireLocked(EditRequested{}); err != nil {
		return e.outcomeLocked(), err
	}
	return e.outcomeLocked(), nil
}

// Cancel abandons the edit. Edited records return to view mode with their saved
// values; creation forms close.
func (e *Engine) Cancel() (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.usableLocked(); err != nil {
		return Outcome{}, err
	}
	creating := e.record == nil
	if err := e.fireLocked(Cancelled{Close: creating}); err != nil {
		return e.outcomeLocked(), err
	}
	e.handling = types.HandlingUnhandled
	e.resume = resumeNone
	if creating {
		out := e.outcomeLocked()
		out.Navigate = e.forward
		return out, nil
	}
	e.data.Values = e.spec.Rows.Restore(e.record)
	for _, r := range e.resolvers {
		param := r.Spec().QueryParam
		ref, ok := e.record.Int(param)
		if !ok {
			ref = types.UnresolvedID
		}
		sel := r.Reset(ref)
		if !ok {
			ref = sel.ID
		}
		e.data.References[param] = ref
	}
	return e.outcomeLocked(), nil
}

func (e *Engine) editableLocked() error {
	if err := e.usableLocked(); err != nil {
		return err
	}
	if e.state.Mode != types.ModeEdit {
		return ErrNotEditing
	}
	return nil
}

// Set stores a raw value for a field. Nothing is validated until submission.
func (e *Engine) Set(name string, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.editableLocked(); err != nil {
		return err
	}
	spec, ok := e.spec.Rows.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if spec.ReadOnly {
		return fmt.Errorf("%w: %s", ErrReadOnlyField, name)
	}
	e.data.Values[name] = value
	return nil
}

// Apply edits field values with RFC6902 operations addressing single fields.
func (e *Engine) Apply(ops []patch.Operation) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.editableLocked(); err != nil {
		return err
	}
	allowed := make(map[string]bool)
	for _, name := range e.spec.Rows.Editable() {
		allowed[name] = true
	}
	if err := patch.ValidateOperations(ops, allowed); err != nil {
		return err
	}
	values, err := patch.Apply(e.data.Values, ops)
	if err != nil {
		return err
	}
	e.data.Values = values
	return nil
}

// Submit validates the form and sends it. When the form declares a submit warning it
// is shown first and Confirm continues the submission.
func (e *Engine) Submit(ctx context.Context) (Outcome, error) {
	return e.submit(ctx, false)
}

func (e *Engine) submit(ctx context.Context, confirmed bool) (Outcome, error) {
	e.mu.Lock()
	if err := e.editableLocked(); err != nil {
		e.mu.Unlock()
		return Outcome{}, err
	}
	if e.state.Status == StatusSubmitting {
		e.logger.Warn("submission already in flight")
		out := e.outcomeLocked()
		e.mu.Unlock()
		return out, ErrBusy
	}
	if warning, ok := e.spec.submitWarning(); ok && !confirmed {
		defer e.mu.Unlock()
		if err := e.fireLocked(ConfirmationRequired{Warning: warning}); err != nil {
			return e.outcomeLocked(), err
		}
		e.resume = resumeSubmit
		return e.outcomeLocked(), nil
	}
	if err := e.fireLocked(SubmitStarted{}); err != nil {
		out := e.outcomeLocked()
		e.mu.Unlock()
		return out, err
	}
	e.resume = resumeNone

	if fe := e.unresolvedLocked(); fe != nil {
		defer e.mu.Unlock()
		return e.rejectLocked(*fe)
	}
	payload, fe := field.Run(e.spec.Rows.Flatten(), e.data.Values)
	if fe != nil {
		defer e.mu.Unlock()
		return e.rejectLocked(*fe)
	}

	handling := e.handling
	e.handling = types.HandlingUnhandled
	creating := e.record == nil
	if !creating && e.sensitiveUnchangedLocked(payload) {
		handling = types.HandlingKeepBoth
	}
	query := e.queryLocked()
	query.Set(protocol.ParamDuplicateHandling, string(handling))
	e.logger.Debug("submitting", "creating", creating, "handling", handling)
	e.mu.Unlock()

	var (
		rec protocol.Record
		err error
	)
	if creating {
		rec, err = e.backend.Create(ctx, e.spec.Route, payload, query)
	} else {
		rec, err = e.backend.Update(ctx, e.spec.Route, payload, query)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.unmounted {
		e.logger.Debug("response dropped after unmount")
		return Outcome{}, ErrUnmounted
	}
	if err != nil {
		if protocol.IsUnhandledDuplicates(err) {
			if ferr := e.fireLocked(DuplicateDetected{Choice: e.spec.duplicateChoice()}); ferr != nil {
				return e.outcomeLocked(), ferr
			}
			return e.outcomeLocked(), nil
		}
		return e.failLocked(err, e.spec.Codes, e.spec.Errors)
	}

	if creating {
		if ferr := e.fireLocked(Succeeded{Close: true}); ferr != nil {
			return e.outcomeLocked(), ferr
		}
		out := e.outcomeLocked()
		out.Record = rec
		out.Navigate = e.forward
		if pk, ok := rec.PK(); ok && out.Navigate == "" && e.spec.DetailRoute != nil {
			out.Navigate = e.spec.DetailRoute(pk)
		}
		return out, nil
	}

	saved := maps.Clone(e.record)
	maps.Copy(saved, payload)
	maps.Copy(saved, rec)
	e.record = saved
	e.baseline = e.sensitive(saved)
	if ferr := e.fireLocked(Succeeded{}); ferr != nil {
		return e.outcomeLocked(), ferr
	}
	out := e.outcomeLocked()
	out.Record = maps.Clone(saved)
	return out, nil
}

func (e *Engine) unresolvedLocked() *types.FieldError {
	for _, r := range e.resolvers {
		if fe := r.Unresolved(e.data.Reference(r.Spec().QueryParam)); fe != nil {
			return fe
		}
	}
	return nil
}

func (e *Engine) rejectLocked(fe types.FieldError) (Outcome, error) {
	e.handling = types.HandlingUnhandled
	e.logger.Debug("submission rejected locally", "title", fe.Title, "fields", fe.AffectedFields)
	if err := e.fireLocked(Failed{Err: fe}); err != nil {
		return e.outcomeLocked(), err
	}
	return e.outcomeLocked(), nil
}

func (e *Engine) failLocked(err error, codes protocol.CodeTable, list protocol.ErrorList) (Outcome, error) {
	fe := protocol.Explain(err, codes, list)
	if fe.Title == types.UnknownErrorTitle {
		e.logger.Warn("unexplained backend error", "error", err)
	} else {
		e.logger.Debug("backend rejected submission", "title", fe.Title, "error", err)
	}
	if ferr := e.fireLocked(Failed{Err: fe}); ferr != nil {
		return e.outcomeLocked(), ferr
	}
	return e.outcomeLocked(), nil
}

// sensitiveUnchangedLocked reports whether an edited record keeps every
// duplicate-sensitive value it was loaded with. Such a save cannot create a new
// duplicate.
func (e *Engine) sensitiveUnchangedLocked(payload map[string]any) bool {
	if len(e.spec.Rows.DuplicateSensitive()) == 0 {
		return false
	}
	current, err := sonic.Marshal(e.sensitive(payload))
	if err != nil {
		return false
	}
	base, err := sonic.Marshal(e.baseline)
	if err != nil {
		return false
	}
	if jsonpatch.Equal(current, base) {
		return true
	}
	if diff, err := jsonpatch.CreateMergePatch(base, current); err == nil {
		e.logger.Debug("duplicate-sensitive fields changed", "diff", string(diff))
	}
	return false
}

func (e *Engine) queryLocked() url.Values {
	q := url.Values{}
	for k, v := range e.spec.ScopeParams {
		q.Set(k, v)
	}
	for _, r := range e.resolvers {
		param := r.Spec().QueryParam
		if id := e.data.Reference(param); id != types.UnresolvedID {
			q.Set(param, strconv.FormatInt(id, 10))
		}
	}
	if e.record != nil {
		q.Set(e.spec.IDParam, strconv.FormatInt(e.recordID, 10))
	}
	return q
}

// KeepBoth resolves a duplicate by saving the new record next to the existing ones.
func (e *Engine) KeepBoth(ctx context.Context) (Outcome, error) {
	e.mu.Lock()
	if err := e.duplicateChoiceLocked(func(c types.DuplicateChoice) bool { return c.AllowKeepBoth }); err != nil {
		out := e.outcomeLocked()
		e.mu.Unlock()
		return out, err
	}
	e.handling = types.HandlingKeepBoth
	e.mu.Unlock()
	return e.submit(ctx, true)
}

// KeepNew asks for confirmation before replacing the existing duplicates.
func (e *Engine) KeepNew() (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.duplicateChoiceLocked(func(c types.DuplicateChoice) bool { return c.AllowKeepNew }); err != nil {
		return e.outcomeLocked(), err
	}
	if err := e.fireLocked(ConfirmationRequired{Warning: e.spec.keepNewWarning()}); err != nil {
		return e.outcomeLocked(), err
	}
	e.resume = resumeKeepNew
	return e.outcomeLocked(), nil
}

func (e *Engine) duplicateChoiceLocked(allowed func(types.DuplicateChoice) bool) error {
	if err := e.usableLocked(); err != nil {
		return err
	}
	if e.state.Status == StatusSubmitting {
		return ErrBusy
	}
	if e.state.Status != StatusDuplicatePending || e.state.Duplicate == nil {
		return fmt.Errorf("%w: no duplicate pending in %s", ErrInvalidTransition, e.state.Status)
	}
	if !allowed(*e.state.Duplicate) {
		return ErrChoiceNotAllowed
	}
	return nil
}

// Confirm continues the action that raised the visible destructive warning.
func (e *Engine) Confirm(ctx context.Context) (Outcome, error) {
	e.mu.Lock()
	if err := e.usableLocked(); err != nil {
		e.mu.Unlock()
		return Outcome{}, err
	}
	if e.state.Status == StatusSubmitting {
		out := e.outcomeLocked()
		e.mu.Unlock()
		return out, ErrBusy
	}
	resume := e.resume
	if e.state.Status != StatusDestructivePending || resume == resumeNone {
		out := e.outcomeLocked()
		e.mu.Unlock()
		return out, ErrNoPendingConfirmation
	}
	e.resume = resumeNone
	if resume == resumeKeepNew {
		e.handling = types.HandlingKeepNew
	}
	e.mu.Unlock()

	switch resume {
	case resumeDelete:
		return e.delete(ctx, true)
	default:
		return e.submit(ctx, true)
	}
}

// Dismiss closes the visible pane and returns to the form.
func (e *Engine) Dismiss() (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.usableLocked(); err != nil {
		return Outcome{}, err
	}
	if err := e.fireLocked(Dismissed{}); err != nil {
		return e.outcomeLocked(), err
	}
	e.resume = resumeNone
	e.handling = types.HandlingUnhandled
	return e.outcomeLocked(), nil
}

// Delete removes the loaded record after the user confirms the warning.
func (e *Engine) Delete(ctx context.Context) (Outcome, error) {
	return e.delete(ctx, false)
}

func (e *Engine) delete(ctx context.Context, confirmed bool) (Outcome, error) {
	e.mu.Lock()
	if err := e.usableLocked(); err != nil {
		e.mu.Unlock()
		return Outcome{}, err
	}
	if e.record == nil {
		out := e.outcomeLocked()
		e.mu.Unlock()
		return out, ErrNoRecord
	}
	if !confirmed {
		defer e.mu.Unlock()
		if err := e.fireLocked(ConfirmationRequired{Warning: e.spec.deleteWarning()}); err != nil {
			return e.outcomeLocked(), err
		}
		e.resume = resumeDelete
		return e.outcomeLocked(), nil
	}
	if err := e.fireLocked(SubmitStarted{}); err != nil {
		out := e.outcomeLocked()
		e.mu.Unlock()
		return out, err
	}
	query := url.Values{}
	for k, v := range e.spec.ScopeParams {
		query.Set(k, v)
	}
	query.Set(e.spec.IDParam, strconv.FormatInt(e.recordID, 10))
	e.logger.Debug("deleting", "id", e.recordID)
	e.mu.Unlock()

	err := e.backend.Delete(ctx, e.spec.Route, query)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.unmounted {
		e.logger.Debug("response dropped after unmount")
		return Outcome{}, ErrUnmounted
	}
	if err != nil {
		return e.failLocked(err, e.spec.Delete.Codes, e.spec.Delete.Errors)
	}
	if ferr := e.fireLocked(Succeeded{Close: true}); ferr != nil {
		return e.outcomeLocked(), ferr
	}
	out := e.outcomeLocked()
	out.Navigate = e.spec.Delete.Forward
	return out, nil
}
