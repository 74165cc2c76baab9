package choice

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/meetform"
	"github.com/tbxark/meetform/field"
	"github.com/tbxark/meetform/protocol"
	"github.com/tbxark/meetform/types"
)

type scriptedModel struct {
	arguments string
	content   string
	err       error
	prompts   [][]*schema.Message
}

func (m *scriptedModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.prompts = append(m.prompts, input)
	if m.err != nil {
		return nil, m.err
	}
	msg := &schema.Message{Role: schema.Assistant, Content: m.content}
	if m.arguments != "" {
		msg.ToolCalls = []schema.ToolCall{{
			ID:       "call_1",
			Function: schema.FunctionCall{Name: chooseToolName, Arguments: m.arguments},
		}}
	}
	return msg, nil
}

func (m *scriptedModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func (m *scriptedModel) WithTools([]*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

var _ model.ToolCallingChatModel = (*scriptedModel)(nil)

func state(status meetform.Status) meetform.State {
	s := meetform.State{Status: status, FormState: types.FormState{Mode: types.ModeEdit}}
	switch status {
	case meetform.StatusErrorShown:
		s.FormState = s.WithError(types.FieldError{Title: "TEAM NAME REQUIRED"})
	case meetform.StatusDuplicatePending:
		s.FormState = s.WithDuplicate(types.DuplicateChoice{Title: "EVENT NUMBER TAKEN", AllowKeepNew: true})
	case meetform.StatusDestructivePending:
		s.FormState = s.WithDestructive(types.DestructiveWarning{Title: "HEAT SHEET WILL BE RESEEDED"})
	}
	return s
}

func TestAllowed(t *testing.T) {
	assert.Equal(t, []Choice{Continue, Cancel}, Allowed(state(meetform.StatusDestructivePending)))
	assert.Equal(t, []Choice{KeepNew, Cancel}, Allowed(state(meetform.StatusDuplicatePending)))
	assert.Equal(t, []Choice{Continue}, Allowed(state(meetform.StatusErrorShown)))
	assert.Empty(t, Allowed(state(meetform.StatusEditing)))

	both := state(meetform.StatusDuplicatePending)
	both.Duplicate.AllowKeepBoth = true
	assert.Equal(t, []Choice{KeepBoth, KeepNew, Cancel}, Allowed(both))
}

func TestKeywordParser(t *testing.T) {
	p := NewKeywordParser()
	ctx := context.Background()

	cases := []struct {
		status meetform.Status
		answer string
		want   Choice
	}{
		{meetform.StatusDestructivePending, "  Yes ", Continue},
		{meetform.StatusDestructivePending, "go BACK", None},
		{meetform.StatusDestructivePending, "back", Cancel},
		{meetform.StatusDuplicatePending, "keep   new", KeepNew},
		{meetform.StatusDuplicatePending, "keep both", None},
		{meetform.StatusErrorShown, "ok", Continue},
		{meetform.StatusErrorShown, "cancel", None},
		{meetform.StatusEditing, "yes", None},
	}
	for _, tc := range cases {
		got, err := p.Parse(ctx, Request{State: state(tc.status), Answer: tc.answer})
		assert.Equal(t, tc.want, got, "%s %q", tc.status, tc.answer)
		if tc.want == None {
			assert.ErrorIs(t, err, ErrUnrecognized, "%s %q", tc.status, tc.answer)
		} else {
			assert.NoError(t, err)
		}
	}
}

func TestToolParser(t *testing.T) {
	ctx := context.Background()
	m := &scriptedModel{arguments: `{"choice":"keep_new"}`}
	p, err := NewToolParser(m)
	require.NoError(t, err)

	got, err := p.Parse(ctx, Request{State: state(meetform.StatusDuplicatePending), Answer: "replace the old one"})
	require.NoError(t, err)
	assert.Equal(t, KeepNew, got)

	require.Len(t, m.prompts, 1)
	system := m.prompts[0][0].Content
	assert.Contains(t, system, "EVENT NUMBER TAKEN")
	assert.Contains(t, system, "keep_new, cancel")
	assert.Equal(t, "replace the old one", m.prompts[0][1].Content)
}

func TestToolParserRejects(t *testing.T) {
	ctx := context.Background()
	req := Request{State: state(meetform.StatusDuplicatePending), Answer: "both please"}

	for name, m := range map[string]*scriptedModel{
		"not offered": {arguments: `{"choice":"keep_both"}`},
		"invented":    {arguments: `{"choice":"maybe"}`},
		"no call":     {content: "I am not sure"},
		"bad json":    {arguments: `{"choice":`},
		"model error": {err: errors.New("rate limited")},
	} {
		p, err := NewToolParser(m)
		require.NoError(t, err)
		got, err := p.Parse(ctx, req)
		assert.Error(t, err, name)
		assert.Equal(t, None, got, name)
	}

	m := &scriptedModel{arguments: `{"choice":"none"}`}
	p, err := NewToolParser(m)
	require.NoError(t, err)
	got, err := p.Parse(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, None, got)

	_, err = p.Parse(ctx, Request{State: state(meetform.StatusEditing), Answer: "yes"})
	assert.ErrorContains(t, err, "shows no options")
}

func TestFailbackParser(t *testing.T) {
	ctx := context.Background()
	m := &scriptedModel{arguments: `{"choice":"continue"}`}
	tool, err := NewToolParser(m)
	require.NoError(t, err)
	p := NewFailbackParser(NewKeywordParser(), tool)
	req := Request{State: state(meetform.StatusDestructivePending)}

	req.Answer = "confirm"
	got, err := p.Parse(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, Continue, got)
	assert.Empty(t, m.prompts, "keywords answer first")

	req.Answer = "sure, reseed it"
	got, err = p.Parse(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, Continue, got)
	assert.Len(t, m.prompts, 1)

	_, err = NewFailbackParser().Parse(ctx, req)
	assert.ErrorIs(t, err, ErrUnrecognized)
}

type recordingBackend struct {
	handling []string
}

func (b *recordingBackend) Create(_ context.Context, _ string, body map[string]any, query url.Values) (protocol.Record, error) {
	b.handling = append(b.handling, query.Get(protocol.ParamDuplicateHandling))
	if len(b.handling) == 1 {
		return nil, &protocol.BackendError{Status: 400, Text: protocol.UnhandledDuplicates}
	}
	return protocol.Record{"pk": float64(2), "name": body["name"]}, nil
}

func (b *recordingBackend) Update(context.Context, string, map[string]any, url.Values) (protocol.Record, error) {
	return nil, errors.New("unexpected update")
}

func (b *recordingBackend) Delete(context.Context, string, url.Values) error {
	return errors.New("unexpected delete")
}

func duplicateForm(t *testing.T, backend meetform.Backend) *meetform.Engine {
	t.Helper()
	e, err := meetform.New(meetform.FormSpec{
		Name:      "event",
		Route:     "/api/v1/event/",
		IDParam:   "event_id",
		Rows:      field.Rows{{{Name: "name", DuplicateSensitive: true}}},
		Duplicate: &types.DuplicateChoice{Title: "EVENT NUMBER TAKEN", AllowKeepNew: true},
	}, backend)
	require.NoError(t, err)
	require.NoError(t, e.Set("name", "100 free"))
	return e
}

func TestApplyDrivesTheEngine(t *testing.T) {
	ctx := context.Background()
	backend := &recordingBackend{}
	e := duplicateForm(t, backend)

	out, err := e.Submit(ctx)
	require.NoError(t, err)
	require.Equal(t, meetform.StatusDuplicatePending, out.State.Status)

	out, err = Apply(ctx, e, KeepBoth)
	assert.ErrorIs(t, err, meetform.ErrChoiceNotAllowed)
	assert.Equal(t, meetform.StatusDuplicatePending, out.State.Status)

	out, err = Apply(ctx, e, None)
	require.NoError(t, err)
	assert.Equal(t, meetform.StatusDuplicatePending, out.State.Status)

	out, err = Apply(ctx, e, KeepNew)
	require.NoError(t, err)
	assert.Equal(t, meetform.StatusDestructivePending, out.State.Status)

	out, err = Apply(ctx, e, Continue)
	require.NoError(t, err)
	assert.Equal(t, meetform.StatusClosed, out.State.Status)
	assert.Equal(t, []string{"unhandled", "keep_new"}, backend.handling)
}

func TestApplyCancelAndDismiss(t *testing.T) {
	ctx := context.Background()
	backend := &recordingBackend{}
	e := duplicateForm(t, backend)

	_, err := e.Submit(ctx)
	require.NoError(t, err)
	out, err := Apply(ctx, e, Cancel)
	require.NoError(t, err)
	assert.Equal(t, meetform.StatusEditing, out.State.Status)

	_, err = Apply(ctx, e, Continue)
	assert.ErrorIs(t, err, meetform.ErrChoiceNotAllowed)
	assert.True(t, strings.Contains(err.Error(), "editing"))
	assert.Len(t, backend.handling, 1)
}
