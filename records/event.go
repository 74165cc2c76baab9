package records

import (
	"github.com/tbxark/meetform"
	"github.com/tbxark/meetform/field"
	"github.com/tbxark/meetform/protocol"
	"github.com/tbxark/meetform/types"
)

var (
	strokes         = []string{"freestyle", "backstroke", "breaststroke", "butterfly", "medley"}
	distances       = []string{"25", "50", "100", "200", "400", "800", "1500"}
	competingGender = []string{"M", "F", "X"}
)

// ageLimit is an optional bound of an event's age group. Blank means open.
func ageLimit(name, label string) field.Spec {
	return field.Spec{
		Name:  name,
		Label: label,
		Validate: field.Optional(field.All(
			field.Integer("INVALID AGE LIMIT"),
			field.IntRange(1, 100, "INVALID AGE LIMIT"),
		)),
		Convert: field.ToOptionalInt,
	}
}

func (m Meet) Event() meetform.FormSpec {
	return meetform.FormSpec{
		Name:        "event",
		Route:       EventRoute,
		IDParam:     EventParam,
		ScopeParams: m.scope(),
		Rows: field.Rows{
			{
				{
					Name:               "event_number",
					Label:              "Event #",
					DuplicateSensitive: true,
					Validate: field.All(
						field.Required("EVENT NUMBER REQUIRED", "Enter the event's number in the program."),
						field.Integer("INVALID EVENT NUMBER"),
						field.IntRange(1, 999, "INVALID EVENT NUMBER"),
					),
					Convert: field.ToInt,
				},
				{
					Name:     "stroke",
					Label:    "Stroke",
					Validate: field.OneOf(strokes, "INVALID STROKE"),
					Convert:  field.Trim,
				},
				{
					Name:     "distance",
					Label:    "Distance",
					Validate: field.OneOf(distances, "INVALID DISTANCE"),
					Convert:  field.ToInt,
				},
			},
			{
				{
					Name:     "competing_gender",
					Label:    "Gender",
					Validate: field.OneOf(competingGender, "INVALID GENDER"),
					Convert:  field.Upper,
				},
				ageLimit("competing_min_age", "Min age"),
				ageLimit("competing_max_age", "Max age"),
			},
		},
		Duplicate: &types.DuplicateChoice{
			Title:        "EVENT NUMBER TAKEN",
			Description:  "Another event in this meet already has this number.",
			AllowKeepNew: true,
		},
		KeepNewWarning: &types.DestructiveWarning{
			Title:       "REPLACE EXISTING EVENT",
			Description: "The event currently holding this number is deleted.",
			Impact:      "All entries of that event are deleted with it.",
		},
		Errors: protocol.ErrorList{
			{
				Match: MsgAgeRange,
				Error: types.FieldError{
					Title:          "MAXIMUM AGE LESS THAN MINIMUM AGE",
					Description:    "The maximum competing age must be greater than or equal to the minimum competing age.",
					AffectedFields: []string{"competing_min_age", "competing_max_age"},
					Recommendation: "Swap the two ages or leave one blank for an open age group.",
				},
			},
			notFound,
		},
		Codes: protocol.CodeTable{
			protocol.CodeAgeRange: {
				Title:          "MAXIMUM AGE LESS THAN MINIMUM AGE",
				Description:    "The maximum competing age must be greater than or equal to the minimum competing age.",
				AffectedFields: []string{"competing_min_age", "competing_max_age"},
				Recommendation: "Swap the two ages or leave one blank for an open age group.",
			},
		},
		DetailRoute: m.detail("event"),
		Delete: meetform.DeleteSpec{
			Errors: protocol.ErrorList{
				{
					Match: MsgEventHasEntries,
					Error: types.FieldError{
						Title:          "EVENT HAS ENTRIES",
						Description:    "An event cannot be deleted while swimmers are entered in it.",
						Recommendation: "Delete its entries first.",
					},
				},
				notFound,
			},
			Forward: m.route("event"),
		},
	}
}
