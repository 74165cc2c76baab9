package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tbxark/meetform"
	"github.com/tbxark/meetform/choice"
	"github.com/tbxark/meetform/patch"
	"github.com/tbxark/meetform/protocol"
	"github.com/tbxark/meetform/records"
	"github.com/tbxark/meetform/session"
	"github.com/tbxark/meetform/types"
)

const usage = `commands:
  new <team|swimmer|event|entry>     open a creation form
  edit <kind> <pk>                   open a record and start editing
  set <field> <value>                set a field
  clear <field>                      empty a field
  pick <reference> <text>            type into a reference and confirm it
  options <reference> [filter]       list a reference's options
  submit | delete | cancel           act on the open form
  show | history | help | quit
Any other input answers the pane the form is showing.`

type app struct {
	meet     records.Meet
	client   *protocol.Client
	registry *session.Registry
	journal  *session.Journal
	parser   choice.Parser
	out      io.Writer
}

func (a *app) spec(kind string) (meetform.FormSpec, error) {
	switch kind {
	case "team":
		return a.meet.Team(), nil
	case "swimmer":
		return a.meet.Swimmer(), nil
	case "event":
		return a.meet.Event(), nil
	case "entry":
		return a.meet.Entry(), nil
	default:
		return meetform.FormSpec{}, fmt.Errorf("unknown record kind %q", kind)
	}
}

func (a *app) handle(ctx context.Context, input string) error {
	cmd, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)
	switch cmd {
	case "help":
		fmt.Fprintln(a.out, usage)
		return nil
	case "new":
		return a.open(ctx, rest, nil)
	case "edit":
		kind, pk, _ := strings.Cut(rest, " ")
		return a.edit(ctx, kind, strings.TrimSpace(pk))
	}

	e, err := a.registry.Get(ctx)
	if errors.Is(err, session.ErrNotMounted) {
		return errors.New("no form is open; use 'new' or 'edit'")
	}
	if err != nil {
		return err
	}

	switch cmd {
	case "set":
		name, value, _ := strings.Cut(rest, " ")
		if err := e.Set(name, strings.TrimSpace(value)); err != nil {
			return err
		}
		return a.show(e)
	case "clear":
		return e.Apply([]patch.Operation{patch.Clear(rest)})
	case "pick":
		param, text, _ := strings.Cut(rest, " ")
		r := e.Reference(param)
		if r == nil {
			return fmt.Errorf("no reference %q", param)
		}
		fmt.Fprint(a.out, types.FormatOptions(r.Type(strings.TrimSpace(text))))
		sel := r.Blur()
		fmt.Fprintf(a.out, "%s = %s (%d)\n", param, sel.Text, sel.ID)
		return nil
	case "options":
		param, filter, _ := strings.Cut(rest, " ")
		r := e.Reference(param)
		if r == nil {
			return fmt.Errorf("no reference %q", param)
		}
		fmt.Fprint(a.out, types.FormatOptions(r.Filter(strings.TrimSpace(filter))))
		return nil
	case "submit":
		out, err := e.Submit(ctx)
		return a.report(ctx, out, err)
	case "delete":
		out, err := e.Delete(ctx)
		return a.report(ctx, out, err)
	case "cancel":
		if e.State().Pane() != types.PaneNone {
			out, err := e.Dismiss()
			return a.report(ctx, out, err)
		}
		out, err := e.Cancel()
		return a.report(ctx, out, err)
	case "show":
		return a.show(e)
	case "history":
		entries, err := a.journal.Load(ctx)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			fmt.Fprintf(a.out, "%s %-22s %s -> %s %s\n", entry.At.Format("15:04:05"), entry.Event, entry.From, entry.To, entry.Title)
		}
		return nil
	}

	state := e.State()
	if state.Pane() == types.PaneNone {
		return fmt.Errorf("unknown command %q", cmd)
	}
	c, err := a.parser.Parse(ctx, choice.Request{State: state, Answer: input})
	if err != nil {
		return fmt.Errorf("could not understand %q: %w", input, err)
	}
	out, err := choice.Apply(ctx, e, c)
	return a.report(ctx, out, err)
}

func (a *app) open(ctx context.Context, kind string, rec protocol.Record) error {
	spec, err := a.spec(kind)
	if err != nil {
		return err
	}
	opts := []meetform.Option{meetform.WithObserver(a.journal.Observer(ctx))}
	if rec != nil {
		opts = append(opts, meetform.WithRecord(rec))
	}
	e, err := meetform.New(spec, a.client, opts...)
	if err != nil {
		return err
	}
	if _, err := a.registry.Open(ctx, e); err != nil {
		return err
	}
	_ = a.journal.Clear(ctx)
	if rec != nil {
		if _, err := e.Edit(); err != nil {
			return err
		}
	}
	return a.show(e)
}

func (a *app) edit(ctx context.Context, kind, pk string) error {
	spec, err := a.spec(kind)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(pk, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid pk %q", pk)
	}
	recs, err := a.client.List(ctx, spec.Route, map[string][]string{records.MeetParam: {strconv.FormatInt(a.meet.ID, 10)}})
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if got, ok := rec.PK(); ok && got == id {
			return a.open(ctx, kind, rec)
		}
	}
	return fmt.Errorf("%s %d not found", kind, id)
}

func (a *app) report(ctx context.Context, out meetform.Outcome, err error) error {
	if err != nil {
		return err
	}
	if out.Navigate != "" {
		fmt.Fprintf(a.out, "navigating to %s\n", out.Navigate)
	}
	if out.State.Status == meetform.StatusClosed {
		return a.registry.Close(ctx)
	}
	fmt.Fprint(a.out, types.FormatState(out.State.FormState))
	return nil
}

func (a *app) show(e *meetform.Engine) error {
	data := e.Data()
	state := e.State()
	fmt.Fprintf(a.out, "%s form (%s)\n", e.Spec().Name, state.Status)
	for _, row := range e.Spec().Rows {
		for _, f := range row {
			fmt.Fprintf(a.out, "  %-12s %v\n", f.Title(), data.Values[f.Name])
		}
	}
	for _, r := range e.References() {
		sel := r.Selection()
		fmt.Fprintf(a.out, "  %-12s %s (%d)\n", r.Spec().Label, sel.Text, sel.ID)
	}
	fmt.Fprint(a.out, types.FormatState(state.FormState))
	return nil
}
