package meetform

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/meetform/field"
	"github.com/tbxark/meetform/patch"
	"github.com/tbxark/meetform/protocol"
	"github.com/tbxark/meetform/reference"
	"github.com/tbxark/meetform/types"
)

type call struct {
	Method string
	Route  string
	Body   map[string]any
	Query  url.Values
}

type reply struct {
	rec protocol.Record
	err error
}

// fakeBackend records every call and answers from replies in order. With no reply
// queued it echoes the body back as a record with pk 1.
type fakeBackend struct {
	mu      sync.Mutex
	calls   []call
	replies []reply
	entered chan struct{}
	release chan struct{}
}

func (f *fakeBackend) queue(replies ...reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, replies...)
}

func (f *fakeBackend) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func (f *fakeBackend) do(method, route string, body map[string]any, query url.Values) (protocol.Record, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{Method: method, Route: route, Body: maps.Clone(body), Query: query})
	var (
		r      reply
		queued bool
	)
	if len(f.replies) > 0 {
		r, queued = f.replies[0], true
		f.replies = f.replies[1:]
	}
	entered, release := f.entered, f.release
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if release != nil {
		<-release
	}
	if queued {
		return r.rec, r.err
	}
	rec := protocol.Record{"pk": float64(1)}
	maps.Copy(rec, body)
	return rec, nil
}

func (f *fakeBackend) Create(_ context.Context, route string, body map[string]any, query url.Values) (protocol.Record, error) {
	return f.do("create", route, body, query)
}

func (f *fakeBackend) Update(_ context.Context, route string, body map[string]any, query url.Values) (protocol.Record, error) {
	return f.do("update", route, body, query)
}

func (f *fakeBackend) Delete(_ context.Context, route string, query url.Values) error {
	_, err := f.do("delete", route, nil, query)
	return err
}

var _ Backend = (*fakeBackend)(nil)

type fakeLister struct {
	records []protocol.Record
}

func (f fakeLister) List(context.Context, string, url.Values) ([]protocol.Record, error) {
	return f.records, nil
}

var errDuplicate = &protocol.BackendError{Status: 400, Text: protocol.UnhandledDuplicates}

func teamSpec() FormSpec {
	return FormSpec{
		Name:        "team",
		Route:       "/api/v1/team/",
		IDParam:     "team_id",
		ScopeParams: map[string]string{"meet_id": "1"},
		Rows: field.Rows{
			{
				{Name: "name", Validate: field.Required("TEAM NAME REQUIRED", ""), Convert: field.Trim, DuplicateSensitive: true},
				{Name: "acronym", Convert: field.Upper, DuplicateSensitive: true},
			},
			{{Name: "pk", ReadOnly: true}},
		},
		Errors: protocol.ErrorList{
			{Match: "acronym in use", Error: types.FieldError{Title: "ACRONYM IN USE"}},
		},
		DetailRoute: func(pk int64) string { return fmt.Sprintf("/meet/1/team/%d", pk) },
		Delete: DeleteSpec{
			Errors:  protocol.ErrorList{{Match: "team has swimmers", Error: types.FieldError{Title: "TEAM HAS SWIMMERS"}}},
			Forward: "/meet/1/team",
		},
	}
}

func sharks() protocol.Record {
	return protocol.Record{"pk": float64(3), "name": "Sharks", "acronym": "SHK", "meet_id": float64(1)}
}

func newEngine(t *testing.T, spec FormSpec, backend Backend, opts ...Option) *Engine {
	t.Helper()
	e, err := New(spec, backend, opts...)
	require.NoError(t, err)
	return e
}

func fill(t *testing.T, e *Engine, values map[string]any) {
	t.Helper()
	for k, v := range values {
		require.NoError(t, e.Set(k, v))
	}
}

func TestNewRejectsBadSpecs(t *testing.T) {
	backend := &fakeBackend{}
	_, err := New(teamSpec(), nil)
	assert.Error(t, err)

	spec := teamSpec()
	spec.IDParam = ""
	_, err = New(spec, backend)
	assert.Error(t, err)

	spec = teamSpec()
	spec.References = []reference.Spec{{QueryParam: "name"}}
	_, err = New(spec, backend)
	assert.ErrorContains(t, err, "shadows a field")

	_, err = New(teamSpec(), backend, WithRecord(protocol.Record{"name": "no key"}))
	assert.ErrorContains(t, err, "no primary key")
}

func TestLocalFailureMakesNoCall(t *testing.T) {
	backend := &fakeBackend{}
	e := newEngine(t, teamSpec(), backend)
	fill(t, e, map[string]any{"name": "   ", "acronym": "shk"})

	out, err := e.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusErrorShown, out.State.Status)
	require.NotNil(t, out.State.Error)
	assert.Equal(t, "TEAM NAME REQUIRED", out.State.Error.Title)
	assert.Equal(t, []string{"name"}, out.State.Error.AffectedFields)
	assert.Empty(t, backend.Calls())

	out, err = e.Dismiss()
	require.NoError(t, err)
	assert.Equal(t, StatusEditing, out.State.Status)
	assert.Equal(t, types.PaneNone, out.State.Pane())
	assert.Equal(t, "   ", e.Data().Values["name"], "raw values survive a failed submission")
}

func TestCreateNavigatesToDetail(t *testing.T) {
	backend := &fakeBackend{}
	e := newEngine(t, teamSpec(), backend)
	fill(t, e, map[string]any{"name": " Sharks ", "acronym": "shk"})

	out, err := e.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, out.State.Status)
	assert.Equal(t, "/meet/1/team/1", out.Navigate)
	assert.Equal(t, "Sharks", out.Record.String("name"))

	calls := backend.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "create", calls[0].Method)
	assert.Equal(t, map[string]any{"name": "Sharks", "acronym": "SHK"}, calls[0].Body)
	assert.Equal(t, "1", calls[0].Query.Get("meet_id"))
	assert.Equal(t, "unhandled", calls[0].Query.Get(protocol.ParamDuplicateHandling))
	assert.False(t, calls[0].Query.Has("team_id"))

	_, err = e.Submit(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestForwardOverridesDetailRoute(t *testing.T) {
	e := newEngine(t, teamSpec(), &fakeBackend{}, WithForward("/meet/1/team"))
	fill(t, e, map[string]any{"name": "Sharks"})
	out, err := e.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/meet/1/team", out.Navigate)
}

func TestBackendFailureIsExplained(t *testing.T) {
	backend := &fakeBackend{}
	backend.queue(
		reply{err: &protocol.BackendError{Status: 400, Text: "acronym in use"}},
		reply{err: errors.New("connection refused")},
	)
	e := newEngine(t, teamSpec(), backend)
	fill(t, e, map[string]any{"name": "Sharks"})

	out, err := e.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ACRONYM IN USE", out.State.Error.Title)

	out, err = e.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.UnknownErrorTitle, out.State.Error.Title)
	assert.Len(t, backend.Calls(), 2)
}

func TestKeepBothResubmitsOnce(t *testing.T) {
	backend := &fakeBackend{}
	backend.queue(reply{err: errDuplicate})
	e := newEngine(t, teamSpec(), backend)
	fill(t, e, map[string]any{"name": "Sharks", "acronym": "SHK"})

	out, err := e.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusDuplicatePending, out.State.Status)
	require.NotNil(t, out.State.Duplicate)
	assert.Equal(t, "POSSIBLE DUPLICATE", out.State.Duplicate.Title)

	out, err = e.KeepBoth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, out.State.Status)

	calls := backend.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "unhandled", calls[0].Query.Get(protocol.ParamDuplicateHandling))
	assert.Equal(t, "keep_both", calls[1].Query.Get(protocol.ParamDuplicateHandling))
	assert.Equal(t, calls[0].Body, calls[1].Body)
}

func TestDuplicateHandlingIsPerAttempt(t *testing.T) {
	backend := &fakeBackend{}
	backend.queue(
		reply{err: errDuplicate},
		reply{err: &protocol.BackendError{Status: 409, Text: "acronym in use"}},
		reply{err: errDuplicate},
	)
	e := newEngine(t, teamSpec(), backend)
	fill(t, e, map[string]any{"name": "Sharks", "acronym": "SHK"})
	ctx := context.Background()

	_, err := e.Submit(ctx)
	require.NoError(t, err)
	out, err := e.KeepBoth(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusErrorShown, out.State.Status)
	assert.Equal(t, "ACRONYM IN USE", out.State.Error.Title)

	_, err = e.Dismiss()
	require.NoError(t, err)
	out, err = e.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusDuplicatePending, out.State.Status)

	calls := backend.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "unhandled", calls[2].Query.Get(protocol.ParamDuplicateHandling))
}

func TestKeepNewNeedsConfirmation(t *testing.T) {
	backend := &fakeBackend{}
	backend.queue(reply{err: errDuplicate})
	e := newEngine(t, teamSpec(), backend)
	fill(t, e, map[string]any{"name": "Sharks", "acronym": "SHK"})
	ctx := context.Background()

	_, err := e.Submit(ctx)
	require.NoError(t, err)
	out, err := e.KeepNew()
	require.NoError(t, err)
	assert.Equal(t, StatusDestructivePending, out.State.Status)
	require.NotNil(t, out.State.Destructive)
	assert.Equal(t, types.WarningDuplicateKeepNew, out.State.Destructive.Kind)
	assert.Len(t, backend.Calls(), 1, "keeping the new record is gated")

	out, err = e.Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, out.State.Status)
	calls := backend.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "keep_new", calls[1].Query.Get(protocol.ParamDuplicateHandling))
}

func TestDismissedKeepNewSendsNothing(t *testing.T) {
	backend := &fakeBackend{}
	backend.queue(reply{err: errDuplicate})
	e := newEngine(t, teamSpec(), backend)
	fill(t, e, map[string]any{"name": "Sharks"})
	ctx := context.Background()

	_, err := e.Submit(ctx)
	require.NoError(t, err)
	_, err = e.KeepNew()
	require.NoError(t, err)
	out, err := e.Dismiss()
	require.NoError(t, err)
	assert.Equal(t, StatusEditing, out.State.Status)

	_, err = e.Confirm(ctx)
	assert.ErrorIs(t, err, ErrNoPendingConfirmation)
	assert.Len(t, backend.Calls(), 1)

	_, err = e.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "unhandled", backend.Calls()[1].Query.Get(protocol.ParamDuplicateHandling))
}

func TestChoiceNotAllowed(t *testing.T) {
	spec := teamSpec()
	spec.Duplicate = &types.DuplicateChoice{Title: "EVENT NUMBER TAKEN", AllowKeepNew: true}
	backend := &fakeBackend{}
	backend.queue(reply{err: errDuplicate})
	e := newEngine(t, spec, backend)
	fill(t, e, map[string]any{"name": "Sharks"})
	ctx := context.Background()

	_, err := e.KeepBoth(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	out, err := e.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "EVENT NUMBER TAKEN", out.State.Duplicate.Title)

	out, err = e.KeepBoth(ctx)
	assert.ErrorIs(t, err, ErrChoiceNotAllowed)
	assert.Equal(t, StatusDuplicatePending, out.State.Status)
	assert.Len(t, backend.Calls(), 1)
}

func TestSubmitWarningGatesEverySubmission(t *testing.T) {
	spec := teamSpec()
	spec.SubmitWarning = &types.DestructiveWarning{Title: "HEAT SHEET WILL BE RESEEDED"}
	backend := &fakeBackend{}
	e := newEngine(t, spec, backend)
	fill(t, e, map[string]any{"name": "Sharks"})
	ctx := context.Background()

	out, err := e.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusDestructivePending, out.State.Status)
	assert.Equal(t, types.WarningDestructiveSubmit, out.State.Destructive.Kind)
	assert.Empty(t, backend.Calls())

	_, err = e.Dismiss()
	require.NoError(t, err)
	assert.Empty(t, backend.Calls())

	_, err = e.Submit(ctx)
	require.NoError(t, err)
	out, err = e.Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, out.State.Status)
	assert.Len(t, backend.Calls(), 1)
}

func TestEditForcesKeepBothWhenSensitiveFieldsUnchanged(t *testing.T) {
	backend := &fakeBackend{}
	e := newEngine(t, teamSpec(), backend, WithRecord(sharks()))
	ctx := context.Background()
	assert.Equal(t, StatusViewing, e.State().Status)
	assert.ErrorIs(t, e.Set("name", "x"), ErrNotEditing)

	_, err := e.Edit()
	require.NoError(t, err)
	require.NoError(t, e.Set("name", "Sharks "))
	out, err := e.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusViewing, out.State.Status)
	assert.Equal(t, "Sharks", out.Record.String("name"))

	calls := backend.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "update", calls[0].Method)
	assert.Equal(t, "3", calls[0].Query.Get("team_id"))
	assert.Equal(t, "keep_both", calls[0].Query.Get(protocol.ParamDuplicateHandling))

	_, err = e.Edit()
	require.NoError(t, err)
	require.NoError(t, e.Set("name", "Dolphins"))
	_, err = e.Submit(ctx)
	require.NoError(t, err)
	calls = backend.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "unhandled", calls[1].Query.Get(protocol.ParamDuplicateHandling))

	_, err = e.Edit()
	require.NoError(t, err)
	_, err = e.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "keep_both", backend.Calls()[2].Query.Get(protocol.ParamDuplicateHandling), "saved values are the new baseline")
}

func TestCancelRestoresSavedValues(t *testing.T) {
	e := newEngine(t, teamSpec(), &fakeBackend{}, WithRecord(sharks()))
	_, err := e.Edit()
	require.NoError(t, err)
	require.NoError(t, e.Set("name", "Dolphins"))

	out, err := e.Cancel()
	require.NoError(t, err)
	assert.Equal(t, StatusViewing, out.State.Status)
	assert.Equal(t, "Sharks", e.Data().Values["name"])
	assert.Equal(t, "Sharks", e.Record().String("name"))
}

func TestCancelClosesCreationForm(t *testing.T) {
	backend := &fakeBackend{}
	e := newEngine(t, teamSpec(), backend, WithForward("/meet/1/team"))
	fill(t, e, map[string]any{"name": "Sharks"})

	out, err := e.Cancel()
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, out.State.Status)
	assert.Equal(t, "/meet/1/team", out.Navigate)
	assert.ErrorIs(t, e.Set("name", "x"), ErrClosed)
	assert.Empty(t, backend.Calls())
}

func TestSetAndApplyGuardFields(t *testing.T) {
	e := newEngine(t, teamSpec(), &fakeBackend{})
	assert.ErrorIs(t, e.Set("color", "red"), ErrUnknownField)
	assert.ErrorIs(t, e.Set("pk", 9), ErrReadOnlyField)
	assert.Error(t, e.Apply([]patch.Operation{patch.Set("pk", 9)}))

	require.NoError(t, e.Apply([]patch.Operation{patch.Set("name", "Sharks"), patch.Set("acronym", "shk")}))
	require.NoError(t, e.Apply([]patch.Operation{patch.Clear("acronym")}))
	values := e.Data().Values
	assert.Equal(t, "Sharks", values["name"])
	assert.NotContains(t, values, "acronym")
}

func TestBusyWhileSubmitting(t *testing.T) {
	backend := &fakeBackend{entered: make(chan struct{}), release: make(chan struct{})}
	e := newEngine(t, teamSpec(), backend)
	fill(t, e, map[string]any{"name": "Sharks"})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := e.Submit(ctx)
		done <- err
	}()
	<-backend.entered

	_, err := e.Submit(ctx)
	assert.ErrorIs(t, err, ErrBusy)
	_, err = e.KeepBoth(ctx)
	assert.ErrorIs(t, err, ErrBusy)
	_, err = e.Confirm(ctx)
	assert.ErrorIs(t, err, ErrBusy)
	_, err = e.Dismiss()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusSubmitting, e.State().Status)

	close(backend.release)
	require.NoError(t, <-done)
	assert.Equal(t, StatusClosed, e.State().Status)
	assert.Len(t, backend.Calls(), 1)
}

func TestUnmountDropsResponse(t *testing.T) {
	backend := &fakeBackend{entered: make(chan struct{}), release: make(chan struct{})}
	var steps []Step
	e := newEngine(t, teamSpec(), backend, WithObserver(func(s Step) { steps = append(steps, s) }))
	fill(t, e, map[string]any{"name": "Sharks"})

	done := make(chan error, 1)
	go func() {
		_, err := e.Submit(context.Background())
		done <- err
	}()
	<-backend.entered
	e.Unmount()
	close(backend.release)

	assert.ErrorIs(t, <-done, ErrUnmounted)
	assert.Equal(t, StatusSubmitting, e.State().Status)
	require.Len(t, steps, 1)
	assert.Equal(t, "submit_started", steps[0].Event.Name())
	assert.ErrorIs(t, e.Set("name", "x"), ErrUnmounted)
}

func TestDeleteIsGated(t *testing.T) {
	backend := &fakeBackend{}
	e := newEngine(t, teamSpec(), backend, WithRecord(sharks()))
	ctx := context.Background()

	out, err := e.Delete(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusDestructivePending, out.State.Status)
	assert.Equal(t, types.WarningDestructiveDelete, out.State.Destructive.Kind)
	assert.Equal(t, "DELETE team", out.State.Destructive.Title)
	assert.Empty(t, backend.Calls())

	out, err = e.Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, out.State.Status)
	assert.Equal(t, "/meet/1/team", out.Navigate)

	calls := backend.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "delete", calls[0].Method)
	assert.Equal(t, "3", calls[0].Query.Get("team_id"))
	assert.Equal(t, "1", calls[0].Query.Get("meet_id"))
}

func TestDeleteFailureReturnsToView(t *testing.T) {
	backend := &fakeBackend{}
	backend.queue(reply{err: &protocol.BackendError{Status: 409, Text: "team has swimmers"}})
	e := newEngine(t, teamSpec(), backend, WithRecord(sharks()))
	ctx := context.Background()

	_, err := e.Delete(ctx)
	require.NoError(t, err)
	out, err := e.Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusErrorShown, out.State.Status)
	assert.Equal(t, "TEAM HAS SWIMMERS", out.State.Error.Title)

	out, err = e.Dismiss()
	require.NoError(t, err)
	assert.Equal(t, StatusViewing, out.State.Status)
}

func TestDeleteNeedsRecord(t *testing.T) {
	_, err := newEngine(t, teamSpec(), &fakeBackend{}).Delete(context.Background())
	assert.ErrorIs(t, err, ErrNoRecord)
}

func swimmerSpec() FormSpec {
	return FormSpec{
		Name:        "swimmer",
		Route:       "/api/v1/swimmer/",
		IDParam:     "swimmer_id",
		ScopeParams: map[string]string{"meet_id": "1"},
		Rows:        field.Rows{{{Name: "first_name", Validate: field.Required("FIRST NAME REQUIRED", "")}}},
		References: []reference.Spec{{
			QueryParam: "team_id",
			Label:      "team",
			Lookup:     reference.Lookup{RelationName: "team", Route: "/api/v1/team/"},
		}},
	}
}

var teamOptions = fakeLister{records: []protocol.Record{
	{"pk": float64(1), "name": "Sharks"},
	{"pk": float64(2), "name": "Dolphins"},
}}

func TestUnresolvedReferenceBlocksSubmission(t *testing.T) {
	backend := &fakeBackend{}
	e := newEngine(t, swimmerSpec(), backend, WithLookup(teamOptions))
	ctx := context.Background()
	require.NoError(t, e.Mount(ctx))
	fill(t, e, map[string]any{"first_name": "Ada"})

	out, err := e.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "TEAM NOT SELECTED", out.State.Error.Title)
	assert.Empty(t, backend.Calls())

	_, err = e.Dismiss()
	require.NoError(t, err)
	ref := e.Reference("team_id")
	require.NotNil(t, ref)
	ref.Type("shar")
	assert.Equal(t, int64(1), ref.Blur().ID)
	assert.Equal(t, int64(1), e.Data().Reference("team_id"))

	_, err = e.Submit(ctx)
	require.NoError(t, err)
	calls := backend.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "1", calls[0].Query.Get("team_id"))
	assert.NotContains(t, calls[0].Body, "team_id")
}

func TestMountPreselectsRecordReferences(t *testing.T) {
	rec := protocol.Record{"pk": float64(8), "first_name": "Ada", "team_id": float64(2)}
	e := newEngine(t, swimmerSpec(), &fakeBackend{}, WithLookup(teamOptions), WithRecord(rec))
	require.NoError(t, e.Mount(context.Background()))
	assert.Equal(t, types.Selection{Text: "Dolphins", ID: 2}, e.Reference("team_id").Selection())
	assert.Equal(t, int64(2), e.Data().Reference("team_id"))
}

func TestCancelRestoresSavedReference(t *testing.T) {
	ctx := context.Background()
	rec := protocol.Record{"pk": float64(8), "first_name": "Ada", "team_id": float64(1)}
	backend := &fakeBackend{}
	e := newEngine(t, swimmerSpec(), backend, WithLookup(teamOptions), WithRecord(rec))
	require.NoError(t, e.Mount(ctx))

	_, err := e.Edit()
	require.NoError(t, err)
	ref := e.Reference("team_id")
	ref.Choose(types.Selection{Text: "Dolphins", ID: 2})
	require.Equal(t, int64(2), e.Data().Reference("team_id"))

	_, err = e.Cancel()
	require.NoError(t, err)
	assert.Equal(t, types.Selection{Text: "Sharks", ID: 1}, ref.Selection())
	assert.Equal(t, "Sharks", ref.Input())
	assert.Equal(t, int64(1), e.Data().Reference("team_id"))

	_, err = e.Edit()
	require.NoError(t, err)
	_, err = e.Submit(ctx)
	require.NoError(t, err)
	calls := backend.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "1", calls[0].Query.Get("team_id"))
}

func TestMountNeedsLookup(t *testing.T) {
	e := newEngine(t, swimmerSpec(), &fakeBackend{})
	assert.Error(t, e.Mount(context.Background()))
}

func TestObserverSeesEveryStep(t *testing.T) {
	var names []string
	e := newEngine(t, teamSpec(), &fakeBackend{}, WithObserver(func(s Step) {
		names = append(names, fmt.Sprintf("%s:%s->%s", s.Event.Name(), s.From.Status, s.To.Status))
	}))
	_, err := e.Submit(context.Background())
	require.NoError(t, err)
	_, err = e.Dismiss()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"submit_started:editing->submitting",
		"failed:submitting->error_shown",
		"dismissed:error_shown->editing",
	}, names)
}
