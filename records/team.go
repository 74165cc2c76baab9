package records

import (
	"github.com/tbxark/meetform"
	"github.com/tbxark/meetform/field"
	"github.com/tbxark/meetform/protocol"
	"github.com/tbxark/meetform/types"
)

// Team is the form of a team taking part in the meet. Name and acronym identify
// duplicates.
func (m Meet) Team() meetform.FormSpec {
	return meetform.FormSpec{
		Name:        "team",
		Route:       TeamRoute,
		IDParam:     TeamParam,
		ScopeParams: m.scope(),
		Rows: field.Rows{
			{
				{
					Name:               "name",
					Label:              "Team name",
					DuplicateSensitive: true,
					Validate: field.All(
						field.Required("TEAM NAME REQUIRED", "Enter the team's name."),
						field.MaxLength(100, "TEAM NAME TOO LONG"),
					),
					Convert: field.Trim,
				},
				{
					Name:               "acronym",
					Label:              "Acronym",
					DuplicateSensitive: true,
					Validate: field.All(
						field.Required("ACRONYM REQUIRED", "Enter a short acronym such as SHK."),
						field.MaxLength(5, "ACRONYM TOO LONG"),
					),
					Convert: field.Upper,
				},
			},
		},
		Duplicate: &types.DuplicateChoice{
			Title:         "TEAM ALREADY EXISTS",
			Description:   "A team with this name or acronym is already registered for the meet.",
			AllowKeepBoth: true,
			AllowKeepNew:  true,
		},
		KeepNewWarning: &types.DestructiveWarning{
			Title:       "REPLACE EXISTING TEAM",
			Description: "The existing team with the same name or acronym is deleted.",
			Impact:      "Its swimmers and their entries are deleted with it.",
		},
		Errors: protocol.ErrorList{
			{
				Match: MsgTeamNameRequired,
				Error: types.FieldError{
					Title:          "TEAM NAME REQUIRED",
					Description:    "The service did not receive a team name.",
					AffectedFields: []string{"name"},
				},
			},
			{
				Match: MsgAcronymInUse,
				Error: types.FieldError{
					Title:          "ACRONYM IN USE",
					Description:    "Another team in this meet already uses the acronym.",
					AffectedFields: []string{"acronym"},
					Recommendation: "Pick a different acronym.",
				},
			},
			notFound,
		},
		DetailRoute: m.detail("team"),
		Delete: meetform.DeleteSpec{
			Warning: &types.DestructiveWarning{
				Title:       "DELETE TEAM",
				Description: "The team is removed from the meet.",
				Impact:      "This cannot be undone.",
			},
			Errors: protocol.ErrorList{
				{
					Match: MsgTeamHasSwimmers,
					Error: types.FieldError{
						Title:          "TEAM HAS SWIMMERS",
						Description:    "A team cannot be deleted while swimmers belong to it.",
						Recommendation: "Delete or move its swimmers first.",
					},
				},
				notFound,
			},
			Codes: protocol.CodeTable{
				protocol.CodeInUse: {
					Title:          "TEAM HAS SWIMMERS",
					Description:    "A team cannot be deleted while swimmers belong to it.",
					Recommendation: "Delete or move its swimmers first.",
				},
			},
			Forward: m.route("team"),
		},
	}
}
