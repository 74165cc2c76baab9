package records

import (
	"fmt"
	"strings"

	"github.com/tbxark/meetform"
	"github.com/tbxark/meetform/field"
	"github.com/tbxark/meetform/protocol"
	"github.com/tbxark/meetform/reference"
	"github.com/tbxark/meetform/types"
)

// SwimmerDisplay renders a swimmer option as "First Last".
func SwimmerDisplay(rec protocol.Record) string {
	return strings.TrimSpace(rec.String("first_name") + " " + rec.String("last_name"))
}

// EventDisplay renders an event option as "#3 50 freestyle".
func EventDisplay(rec protocol.Record) string {
	num, _ := rec.Int("event_number")
	dist, _ := rec.Int("distance")
	return fmt.Sprintf("#%d %d %s", num, dist, rec.String("stroke"))
}

var ineligible = types.FieldError{
	Title:          "SWIMMER NOT ELIGIBLE",
	Description:    "The swimmer does not meet the event's gender or age requirements.",
	AffectedFields: []string{SwimmerParam, EventParam},
	Recommendation: "Pick another event or swimmer.",
}

func (m Meet) Entry() meetform.FormSpec {
	return meetform.FormSpec{
		Name:        "entry",
		Route:       EntryRoute,
		IDParam:     EntryParam,
		ScopeParams: m.scope(),
		Rows: field.Rows{
			{
				{
					Name:     "seed_time",
					Label:    "Seed time",
					Validate: field.Optional(field.SwimTime("INVALID SEED TIME")),
					Convert:  field.ToSeconds,
				},
			},
		},
		References: []reference.Spec{
			{
				QueryParam: SwimmerParam,
				Label:      "swimmer",
				Lookup: reference.Lookup{
					RelationName: "swimmer",
					Route:        SwimmerRoute,
					ScopeParams:  m.scope(),
					Display:      SwimmerDisplay,
				},
			},
			{
				QueryParam: EventParam,
				Label:      "event",
				Lookup: reference.Lookup{
					RelationName: "event",
					Route:        EventRoute,
					ScopeParams:  m.scope(),
					Display:      EventDisplay,
				},
			},
		},
		Duplicate: &types.DuplicateChoice{
			Title:        "SWIMMER ALREADY ENTERED",
			Description:  "The swimmer already has an entry in this event.",
			AllowKeepNew: true,
		},
		KeepNewWarning: &types.DestructiveWarning{
			Title:       "REPLACE EXISTING ENTRY",
			Description: "The swimmer's existing entry in this event is deleted.",
			Impact:      "Its seed time is lost.",
		},
		SubmitWarning: &types.DestructiveWarning{
			Title:       "HEAT SHEET WILL BE RESEEDED",
			Description: "Changing entries invalidates the seeding of the generated heat sheet.",
			Impact:      "Heats and lanes must be generated again before the meet.",
		},
		Errors: protocol.ErrorList{
			{Match: MsgIneligibleGender, Error: ineligible},
			{Match: MsgIneligibleAge, Error: ineligible},
			{
				Match: MsgInvalidSeedTime,
				Error: types.FieldError{
					Title:          "INVALID SEED TIME",
					Description:    "Seed times must be greater than zero.",
					AffectedFields: []string{"seed_time"},
				},
			},
			{
				Match: MsgSwimmerNotFound,
				Error: types.FieldError{
					Title:          "SWIMMER NOT FOUND",
					Description:    "The selected swimmer no longer exists.",
					AffectedFields: []string{SwimmerParam},
				},
			},
			{
				Match: MsgEventNotFound,
				Error: types.FieldError{
					Title:          "EVENT NOT FOUND",
					Description:    "The selected event no longer exists.",
					AffectedFields: []string{EventParam},
				},
			},
			notFound,
		},
		Codes: protocol.CodeTable{
			protocol.CodeIneligible: ineligible,
		},
		DetailRoute: m.detail("entry"),
		Delete: meetform.DeleteSpec{
			Warning: &types.DestructiveWarning{
				Title:       "DELETE ENTRY",
				Description: "The swimmer is withdrawn from the event.",
				Impact:      "The heat sheet must be generated again.",
			},
			Errors:  protocol.ErrorList{notFound},
			Forward: m.route("entry"),
		},
	}
}
