package records

import (
	"github.com/tbxark/meetform"
	"github.com/tbxark/meetform/field"
	"github.com/tbxark/meetform/protocol"
	"github.com/tbxark/meetform/reference"
	"github.com/tbxark/meetform/types"
)

var genders = []string{"M", "F"}

// TeamReference selects the team a swimmer swims for.
func (m Meet) TeamReference() reference.Spec {
	return reference.Spec{
		QueryParam: TeamParam,
		Label:      "team",
		Lookup: reference.Lookup{
			RelationName: "team",
			Route:        TeamRoute,
			ScopeParams:  m.scope(),
		},
	}
}

func (m Meet) Swimmer() meetform.FormSpec {
	return meetform.FormSpec{
		Name:        "swimmer",
		Route:       SwimmerRoute,
		IDParam:     SwimmerParam,
		ScopeParams: m.scope(),
		Rows: field.Rows{
			{
				{
					Name:               "first_name",
					Label:              "First name",
					DuplicateSensitive: true,
					Validate: field.All(
						field.Required("FIRST NAME REQUIRED", "Enter the swimmer's first name."),
						field.MaxLength(100, "FIRST NAME TOO LONG"),
					),
					Convert: field.Trim,
				},
				{
					Name:               "last_name",
					Label:              "Last name",
					DuplicateSensitive: true,
					Validate: field.All(
						field.Required("LAST NAME REQUIRED", "Enter the swimmer's last name."),
						field.MaxLength(100, "LAST NAME TOO LONG"),
					),
					Convert: field.Trim,
				},
			},
			{
				{
					Name:  "age",
					Label: "Age",
					Validate: field.All(
						field.Required("AGE REQUIRED", "Enter the swimmer's age on the day of the meet."),
						field.Integer("INVALID AGE"),
						field.IntRange(1, 100, "INVALID AGE"),
					),
					Convert: field.ToInt,
				},
				{
					Name:     "gender",
					Label:    "Gender",
					Validate: field.OneOf(genders, "INVALID GENDER"),
					Convert:  field.Upper,
				},
			},
		},
		References: []reference.Spec{m.TeamReference()},
		Duplicate: &types.DuplicateChoice{
			Title:         "SWIMMER ALREADY EXISTS",
			Description:   "A swimmer with the same first and last name is already registered.",
			AllowKeepBoth: true,
			AllowKeepNew:  true,
		},
		KeepNewWarning: &types.DestructiveWarning{
			Title:       "REPLACE EXISTING SWIMMER",
			Description: "The existing swimmer with the same name is deleted.",
			Impact:      "Their entries are deleted with them.",
		},
		Errors: protocol.ErrorList{
			{
				Match: MsgTeamNotFound,
				Error: types.FieldError{
					Title:          "TEAM NOT FOUND",
					Description:    "The selected team no longer exists.",
					AffectedFields: []string{TeamParam},
					Recommendation: "Reload the page and pick another team.",
				},
			},
			notFound,
		},
		DetailRoute: m.detail("swimmer"),
		Delete: meetform.DeleteSpec{
			Warning: &types.DestructiveWarning{
				Title:       "DELETE SWIMMER",
				Description: "The swimmer is removed from the meet.",
				Impact:      "This cannot be undone.",
			},
			Errors: protocol.ErrorList{
				{
					Match: MsgSwimmerHasEntries,
					Error: types.FieldError{
						Title:          "SWIMMER HAS ENTRIES",
						Description:    "A swimmer cannot be deleted while entered in events.",
						Recommendation: "Delete their entries first.",
					},
				},
				notFound,
			},
			Forward: m.route("swimmer"),
		},
	}
}
