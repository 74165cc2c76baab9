// Package records declares the swim-meet record types edited through meetform.
package records

import (
	"fmt"
	"strconv"

	"github.com/tbxark/meetform/protocol"
	"github.com/tbxark/meetform/types"
)

const (
	TeamRoute    = "/api/v1/team/"
	SwimmerRoute = "/api/v1/swimmer/"
	EventRoute   = "/api/v1/event/"
	EntryRoute   = "/api/v1/entry/"

	MeetParam    = "meet_id"
	TeamParam    = "team_id"
	SwimmerParam = "swimmer_id"
	EventParam   = "event_id"
	EntryParam   = "entry_id"
)

// Failure texts sent by the persistence service.
const (
	MsgTeamNameRequired  = "team name is required"
	MsgAcronymInUse      = "acronym already used by another team"
	MsgTeamHasSwimmers   = "team still has swimmers"
	MsgTeamNotFound      = "team does not exist"
	MsgSwimmerNotFound   = "swimmer does not exist"
	MsgEventNotFound     = "event does not exist"
	MsgAgeRange          = "competing_max_age must be greater than or equal to competing_min_age"
	MsgEventHasEntries   = "event still has entries"
	MsgIneligibleGender  = "swimmer gender not allowed in event"
	MsgIneligibleAge     = "swimmer age outside event age range"
	MsgRecordNotFound    = "record not found"
	MsgDuplicateHandling = "invalid duplicate_handling"
	MsgMeetRequired      = "meet_id is required"
	MsgInvalidSeedTime   = "seed_time must be positive"
	MsgSwimmerHasEntries = "swimmer still has entries"
	MsgEntryOutsideMeet  = "swimmer and event belong to different meets"
)

// Meet scopes every form to one swim meet.
type Meet struct {
	ID int64
}

func (m Meet) scope() map[string]string {
	return map[string]string{MeetParam: strconv.FormatInt(m.ID, 10)}
}

func (m Meet) route(kind string) string {
	return fmt.Sprintf("/meet/%d/%s", m.ID, kind)
}

func (m Meet) detail(kind string) func(int64) string {
	return func(pk int64) string {
		return fmt.Sprintf("/meet/%d/%s/%d", m.ID, kind, pk)
	}
}

var notFound = protocol.ErrorMatch{
	Match: MsgRecordNotFound,
	Error: types.FieldError{
		Title:          "RECORD NOT FOUND",
		Description:    "The record was deleted by someone else.",
		Recommendation: "Go back to the list and reload it.",
	},
}
