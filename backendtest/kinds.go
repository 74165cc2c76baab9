package backendtest

import (
	"net/http"
	"strings"

	"github.com/tbxark/meetform/protocol"
	"github.com/tbxark/meetform/records"
)

const (
	KindTeam    = "team"
	KindSwimmer = "swimmer"
	KindEvent   = "event"
	KindEntry   = "entry"
)

type kind struct {
	name    string
	idParam string
	// refs are the foreign keys a mutation carries as query parameters.
	refs      []string
	duplicate func(rec, other protocol.Record) bool
	validate  func(s *Server, rec protocol.Record) *failure
	keepBoth  func(rec protocol.Record, dups []protocol.Record) *failure
	inUse     func(s *Server, rec protocol.Record) *failure
}

type dependent struct {
	kind  string
	param string
}

// dependents lists the records deleted along with a record of each kind.
var dependents = map[string][]dependent{
	KindTeam:    {{kind: KindSwimmer, param: records.TeamParam}},
	KindSwimmer: {{kind: KindEntry, param: records.SwimmerParam}},
	KindEvent:   {{kind: KindEntry, param: records.EventParam}},
}

func kinds() []*kind {
	return []*kind{
		{
			name:    KindTeam,
			idParam: records.TeamParam,
			duplicate: func(rec, other protocol.Record) bool {
				return sameText(rec, other, "name") || sameText(rec, other, "acronym")
			},
			validate: func(_ *Server, rec protocol.Record) *failure {
				if strings.TrimSpace(rec.String("name")) == "" {
					return &failure{code: protocol.CodeRequired, text: records.MsgTeamNameRequired, field: "name"}
				}
				return nil
			},
			keepBoth: func(rec protocol.Record, dups []protocol.Record) *failure {
				for _, dup := range dups {
					if sameText(rec, dup, "acronym") {
						return &failure{code: protocol.CodeConflict, text: records.MsgAcronymInUse, field: "acronym"}
					}
				}
				return nil
			},
			inUse: func(s *Server, rec protocol.Record) *failure {
				if s.countLocked(KindSwimmer, records.TeamParam, pkOf(rec)) > 0 {
					return &failure{code: protocol.CodeInUse, text: records.MsgTeamHasSwimmers}
				}
				return nil
			},
		},
		{
			name:    KindSwimmer,
			idParam: records.SwimmerParam,
			refs:    []string{records.TeamParam},
			duplicate: func(rec, other protocol.Record) bool {
				return sameText(rec, other, "first_name") && sameText(rec, other, "last_name")
			},
			validate: func(s *Server, rec protocol.Record) *failure {
				if !s.inMeetLocked(KindTeam, rec, records.TeamParam) {
					return &failure{status: http.StatusNotFound, code: protocol.CodeInvalid, text: records.MsgTeamNotFound, field: records.TeamParam}
				}
				return nil
			},
			inUse: func(s *Server, rec protocol.Record) *failure {
				if s.countLocked(KindEntry, records.SwimmerParam, pkOf(rec)) > 0 {
					return &failure{code: protocol.CodeInUse, text: records.MsgSwimmerHasEntries}
				}
				return nil
			},
		},
		{
			name:    KindEvent,
			idParam: records.EventParam,
			duplicate: func(rec, other protocol.Record) bool {
				return sameInt(rec, other, "event_number")
			},
			validate: func(_ *Server, rec protocol.Record) *failure {
				lo, okLo := rec.Int("competing_min_age")
				hi, okHi := rec.Int("competing_max_age")
				if okLo && okHi && hi < lo {
					return &failure{code: protocol.CodeAgeRange, text: records.MsgAgeRange, field: "competing_max_age"}
				}
				return nil
			},
			inUse: func(s *Server, rec protocol.Record) *failure {
				if s.countLocked(KindEntry, records.EventParam, pkOf(rec)) > 0 {
					return &failure{code: protocol.CodeInUse, text: records.MsgEventHasEntries}
				}
				return nil
			},
		},
		{
			name:    KindEntry,
			idParam: records.EntryParam,
			refs:    []string{records.SwimmerParam, records.EventParam},
			duplicate: func(rec, other protocol.Record) bool {
				return sameInt(rec, other, records.SwimmerParam) && sameInt(rec, other, records.EventParam)
			},
			validate: validateEntry,
		},
	}
}

func validateEntry(s *Server, rec protocol.Record) *failure {
	swimmer, ok := s.refLocked(KindSwimmer, rec, records.SwimmerParam)
	if !ok {
		return &failure{status: http.StatusNotFound, code: protocol.CodeInvalid, text: records.MsgSwimmerNotFound, field: records.SwimmerParam}
	}
	event, ok := s.refLocked(KindEvent, rec, records.EventParam)
	if !ok {
		return &failure{status: http.StatusNotFound, code: protocol.CodeInvalid, text: records.MsgEventNotFound, field: records.EventParam}
	}
	if !sameInt(swimmer, rec, records.MeetParam) || !sameInt(event, rec, records.MeetParam) {
		return &failure{code: protocol.CodeConflict, text: records.MsgEntryOutsideMeet}
	}
	if g := event.String("competing_gender"); g != "" && g != "X" && !strings.EqualFold(g, swimmer.String("gender")) {
		return &failure{code: protocol.CodeIneligible, text: records.MsgIneligibleGender}
	}
	age, _ := swimmer.Int("age")
	if lo, ok := event.Int("competing_min_age"); ok && age < lo {
		return &failure{code: protocol.CodeIneligible, text: records.MsgIneligibleAge}
	}
	if hi, ok := event.Int("competing_max_age"); ok && age > hi {
		return &failure{code: protocol.CodeIneligible, text: records.MsgIneligibleAge}
	}
	if t, ok := rec["seed_time"].(float64); ok && t <= 0 {
		return &failure{code: protocol.CodeInvalid, text: records.MsgInvalidSeedTime, field: "seed_time"}
	}
	return nil
}

func (s *Server) refLocked(kindName string, rec protocol.Record, param string) (protocol.Record, bool) {
	id, ok := rec.Int(param)
	if !ok {
		return nil, false
	}
	return s.getLocked(kindName, id)
}

func (s *Server) inMeetLocked(kindName string, rec protocol.Record, param string) bool {
	ref, ok := s.refLocked(kindName, rec, param)
	return ok && sameInt(ref, rec, records.MeetParam)
}

func (s *Server) countLocked(kindName, param string, id int64) int {
	n := 0
	for _, rec := range s.store[kindName] {
		if v, ok := rec.Int(param); ok && v == id {
			n++
		}
	}
	return n
}

func sameText(a, b protocol.Record, key string) bool {
	x, y := strings.TrimSpace(a.String(key)), strings.TrimSpace(b.String(key))
	return x != "" && strings.EqualFold(x, y)
}
