package testcases

import (
	"context"
	"slices"
	"testing"

	"github.com/tbxark/meetform"
	"github.com/tbxark/meetform/backendtest"
	"github.com/tbxark/meetform/protocol"
)

func fillEvent(t *testing.T, form *meetform.Engine, minAge, maxAge string) {
	t.Helper()
	Fill(t, form, map[string]any{
		"event_number":      "1",
		"stroke":            "freestyle",
		"distance":          "50",
		"competing_gender":  "f",
		"competing_min_age": minAge,
		"competing_max_age": maxAge,
	})
}

// TestEventAgeRange checks that the service's age range failure is explained in both
// failure formats.
func TestEventAgeRange(t *testing.T) {
	t.Parallel()
	for _, structured := range []bool{false, true} {
		meet := NewMeet(t, backendtest.Options{Structured: structured})
		form := meet.Open(t, meet.Event())
		fillEvent(t, form, "12", "10")

		out, err := form.Submit(context.Background())
		expectError(t, out, err, "MAXIMUM AGE LESS THAN MINIMUM AGE")
		want := []string{"competing_min_age", "competing_max_age"}
		if got := out.State.Error.AffectedFields; !slices.Equal(got, want) {
			t.Errorf("structured=%v: expected affected fields %v, got %v", structured, want, got)
		}
	}
}

// TestOpenAgeGroup leaves the maximum age blank.
func TestOpenAgeGroup(t *testing.T) {
	t.Parallel()
	meet := NewMeet(t, backendtest.Options{})
	form := meet.Open(t, meet.Event())
	fillEvent(t, form, "9", "")

	out, err := form.Submit(context.Background())
	expectStatus(t, out, err, meetform.StatusClosed)
	events := meet.Server.Records(backendtest.KindEvent)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if _, ok := events[0].Int("competing_max_age"); ok {
		t.Errorf("expected no maximum age, got %v", events[0]["competing_max_age"])
	}
	if lo, _ := events[0].Int("competing_min_age"); lo != 9 {
		t.Errorf("expected minimum age 9, got %d", lo)
	}
}

// TestEventNumberOffersNoKeepBoth checks that two events cannot share a number.
func TestEventNumberOffersNoKeepBoth(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	meet := NewMeet(t, backendtest.Options{})
	meet.Seed(backendtest.KindEvent, protocol.Record{"event_number": 1, "stroke": "backstroke", "distance": 100})
	form := meet.Open(t, meet.Event())
	fillEvent(t, form, "", "")

	out, err := form.Submit(ctx)
	expectStatus(t, out, err, meetform.StatusDuplicatePending)
	if out.State.Duplicate.AllowKeepBoth {
		t.Error("expected keep both to be unavailable for events")
	}
	if _, err := form.KeepBoth(ctx); err == nil {
		t.Fatal("expected keep both to be refused")
	}
	if n := len(meet.Server.Mutations()); n != 1 {
		t.Errorf("expected the refused choice to send nothing, got %d mutations", n)
	}
}

// TestInvalidEventNumber stops on the first invalid field in declared order.
func TestInvalidEventNumber(t *testing.T) {
	t.Parallel()
	meet := NewMeet(t, backendtest.Options{})
	form := meet.Open(t, meet.Event())
	fillEvent(t, form, "abc", "")
	Fill(t, form, map[string]any{"event_number": "1.5"})

	out, err := form.Submit(context.Background())
	expectError(t, out, err, "INVALID EVENT NUMBER")
	if n := len(meet.Server.Calls()); n != 0 {
		t.Errorf("expected no request, got %d", n)
	}
}
