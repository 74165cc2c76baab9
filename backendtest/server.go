// Package backendtest is an in-memory swim-meet persistence service speaking the same
// HTTP contract as the real one. Tests and the example client run against it.
package backendtest

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"

	"github.com/tbxark/meetform/protocol"
	"github.com/tbxark/meetform/records"
	"github.com/tbxark/meetform/types"
)

type Options struct {
	// Structured sends failures as JSON {code, error, params} instead of plain text.
	Structured bool
	// Token, when set, is required in the Authorization header.
	Token  string
	Logger *slog.Logger
}

// Call is one request the service received.
type Call struct {
	Method        string
	Path          string
	Query         url.Values
	Body          map[string]any
	CorrelationID string
}

type Server struct {
	opts   Options
	router chi.Router
	kinds  map[string]*kind

	mu     sync.Mutex
	nextPK int64
	store  map[string][]protocol.Record
	calls  []Call
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{
		opts:   opts,
		kinds:  make(map[string]*kind),
		store:  make(map[string][]protocol.Record),
		nextPK: 1,
	}
	r := chi.NewRouter()
	r.Use(s.recordCall)
	if opts.Token != "" {
		r.Use(s.requireToken)
	}
	r.Route("/api/v1", func(r chi.Router) {
		for _, k := range kinds() {
			s.kinds[k.name] = k
			route := "/" + k.name + "/"
			r.Get(route, s.list(k))
			r.Post(route, s.create(k))
			r.Put(route, s.update(k))
			r.Delete(route, s.remove(k))
		}
	})
	s.router = r
	return s
}

// Start serves s on a local listener until the returned server is closed.
func (s *Server) Start() *httptest.Server {
	return httptest.NewServer(s)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Seed stores rec as kind without going through validation and returns it with its pk.
func (s *Server) Seed(kindName string, rec protocol.Record) protocol.Record {
	if _, ok := s.kinds[kindName]; !ok {
		panic("backendtest: unknown kind " + kindName)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(kindName, normalize(rec))
}

// Records returns the stored records of kind in pk order.
func (s *Server) Records(kindName string) []protocol.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]protocol.Record, 0, len(s.store[kindName]))
	for _, rec := range s.store[kindName] {
		out = append(out, clone(rec))
	}
	return out
}

// Calls returns every request received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// Mutations returns the received requests that were not reads.
func (s *Server) Mutations() []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method != http.MethodGet {
			out = append(out, c)
		}
	}
	return out
}

func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *Server) recordCall(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := Call{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.Query(),
			CorrelationID: r.Header.Get("X-Correlation-ID"),
		}
		if r.Body != nil {
			data, _ := io.ReadAll(r.Body)
			_ = r.Body.Close()
			if len(bytes.TrimSpace(data)) > 0 {
				_ = sonic.Unmarshal(data, &call.Body)
			}
			r.Body = io.NopCloser(bytes.NewReader(data))
		}
		s.mu.Lock()
		s.calls = append(s.calls, call)
		s.mu.Unlock()
		s.opts.Logger.Debug("backend request", "method", call.Method, "path", call.Path, "query", call.Query.Encode())
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Token "+s.opts.Token {
			s.fail(w, failure{status: http.StatusForbidden, code: protocol.CodeForbidden, text: "invalid token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type failure struct {
	status int
	code   protocol.Code
	text   string
	field  string
}

func (s *Server) fail(w http.ResponseWriter, f failure) {
	status := f.status
	if status == 0 {
		status = http.StatusBadRequest
	}
	if s.opts.Structured {
		body := protocol.Failure{Code: f.code, Error: f.text}
		if f.field != "" {
			body.Params = map[string]string{"field": f.field}
		}
		writeJSON(w, status, body)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, f.text)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func decodeBody(r *http.Request) (protocol.Record, error) {
	defer r.Body.Close()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	rec := protocol.Record{}
	if len(bytes.TrimSpace(data)) == 0 {
		return rec, nil
	}
	if err := sonic.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Server) list(k *kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		s.mu.Lock()
		out := make([]protocol.Record, 0)
		for _, rec := range s.store[k.name] {
			if matches(rec, query) {
				out = append(out, clone(rec))
			}
		}
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) create(k *kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := decodeBody(r)
		if err != nil {
			s.fail(w, failure{code: protocol.CodeInvalid, text: "malformed body"})
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		rec, f := s.prepareLocked(k, r.URL.Query(), body, nil)
		if f != nil {
			s.fail(w, *f)
			return
		}
		writeJSON(w, http.StatusCreated, s.insertLocked(k.name, rec))
	}
}

func (s *Server) update(k *kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := decodeBody(r)
		if err != nil {
			s.fail(w, failure{code: protocol.CodeInvalid, text: "malformed body"})
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		query := r.URL.Query()
		idx, f := s.findLocked(k, query)
		if f != nil {
			s.fail(w, *f)
			return
		}
		existing := s.store[k.name][idx]
		merged := clone(existing)
		for key, v := range body {
			merged[key] = v
		}
		rec, f := s.prepareLocked(k, query, merged, existing)
		if f != nil {
			s.fail(w, *f)
			return
		}
		// keep_new may have removed records before this one
		idx, _ = s.indexLocked(k.name, pkOf(existing))
		rec["pk"] = existing["pk"]
		s.store[k.name][idx] = rec
		writeJSON(w, http.StatusOK, clone(rec))
	}
}

func (s *Server) remove(k *kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		idx, f := s.findLocked(k, r.URL.Query())
		if f != nil {
			s.fail(w, *f)
			return
		}
		rec := s.store[k.name][idx]
		if k.inUse != nil {
			if f := k.inUse(s, rec); f != nil {
				f.status = http.StatusConflict
				s.fail(w, *f)
				return
			}
		}
		s.deleteLocked(k.name, pkOf(rec))
		w.WriteHeader(http.StatusNoContent)
	}
}

// prepareLocked applies the query parameters to rec, validates it and resolves
// duplicates. self is the stored version of an updated record.
func (s *Server) prepareLocked(k *kind, query url.Values, rec protocol.Record, self protocol.Record) (protocol.Record, *failure) {
	meet, err := strconv.ParseInt(query.Get(records.MeetParam), 10, 64)
	if err != nil {
		return nil, &failure{status: http.StatusBadRequest, code: protocol.CodeRequired, text: records.MsgMeetRequired, field: records.MeetParam}
	}
	handling := types.DuplicateHandling(query.Get(protocol.ParamDuplicateHandling))
	if handling == "" {
		handling = types.HandlingUnhandled
	}
	if !handling.IsValid() {
		return nil, &failure{status: http.StatusBadRequest, code: protocol.CodeInvalid, text: records.MsgDuplicateHandling, field: protocol.ParamDuplicateHandling}
	}
	rec = normalize(rec)
	delete(rec, "pk")
	rec[records.MeetParam] = meet
	for _, param := range k.refs {
		if v := query.Get(param); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, &failure{status: http.StatusBadRequest, code: protocol.CodeInvalid, text: "invalid " + param, field: param}
			}
			rec[param] = id
		}
	}
	if k.validate != nil {
		if f := k.validate(s, rec); f != nil {
			return nil, f
		}
	}

	dups := s.duplicatesLocked(k, rec, self)
	if len(dups) == 0 {
		return rec, nil
	}
	switch handling {
	case types.HandlingKeepNew:
		for _, dup := range dups {
			s.deleteLocked(k.name, pkOf(dup))
		}
	case types.HandlingKeepBoth:
		if k.keepBoth != nil {
			if f := k.keepBoth(rec, dups); f != nil {
				f.status = http.StatusConflict
				return nil, f
			}
		}
	default:
		return nil, &failure{status: http.StatusBadRequest, code: protocol.CodeUnhandledDuplicates, text: protocol.UnhandledDuplicates}
	}
	return rec, nil
}

func (s *Server) duplicatesLocked(k *kind, rec, self protocol.Record) []protocol.Record {
	if k.duplicate == nil {
		return nil
	}
	var out []protocol.Record
	for _, other := range s.store[k.name] {
		if self != nil && pkOf(other) == pkOf(self) {
			continue
		}
		if !sameInt(other, rec, records.MeetParam) {
			continue
		}
		if k.duplicate(rec, other) {
			out = append(out, other)
		}
	}
	return out
}

func (s *Server) findLocked(k *kind, query url.Values) (int, *failure) {
	pk, err := strconv.ParseInt(query.Get(k.idParam), 10, 64)
	if err != nil {
		return -1, &failure{status: http.StatusBadRequest, code: protocol.CodeRequired, text: k.idParam + " is required", field: k.idParam}
	}
	idx, ok := s.indexLocked(k.name, pk)
	if !ok {
		return -1, &failure{status: http.StatusNotFound, code: protocol.CodeNotFound, text: records.MsgRecordNotFound}
	}
	return idx, nil
}

func (s *Server) indexLocked(kindName string, pk int64) (int, bool) {
	for i, rec := range s.store[kindName] {
		if pkOf(rec) == pk {
			return i, true
		}
	}
	return -1, false
}

func (s *Server) insertLocked(kindName string, rec protocol.Record) protocol.Record {
	rec = clone(rec)
	rec["pk"] = s.nextPK
	s.nextPK++
	s.store[kindName] = append(s.store[kindName], rec)
	return clone(rec)
}

// deleteLocked removes a record and every record that depends on it.
func (s *Server) deleteLocked(kindName string, pk int64) {
	idx, ok := s.indexLocked(kindName, pk)
	if !ok {
		return
	}
	s.store[kindName] = slices.Delete(s.store[kindName], idx, idx+1)
	for _, dep := range dependents[kindName] {
		for _, child := range slices.Clone(s.store[dep.kind]) {
			if id, ok := child.Int(dep.param); ok && id == pk {
				s.deleteLocked(dep.kind, pkOf(child))
			}
		}
	}
}

func (s *Server) getLocked(kindName string, pk int64) (protocol.Record, bool) {
	idx, ok := s.indexLocked(kindName, pk)
	if !ok {
		return nil, false
	}
	return s.store[kindName][idx], true
}

func matches(rec protocol.Record, query url.Values) bool {
	for key, values := range query {
		if len(values) == 0 {
			continue
		}
		v, ok := rec[key]
		if !ok || valueText(v) != values[0] {
			return false
		}
	}
	return true
}

// normalize turns whole float64 numbers into int64 so stored records compare and
// print like the service's integer columns.
func normalize(rec protocol.Record) protocol.Record {
	out := make(protocol.Record, len(rec))
	for k, v := range rec {
		if f, ok := v.(float64); ok && f == float64(int64(f)) && !strings.HasSuffix(k, "_time") {
			out[k] = int64(f)
			continue
		}
		out[k] = v
	}
	return out
}

func clone(rec protocol.Record) protocol.Record {
	out := make(protocol.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func pkOf(rec protocol.Record) int64 {
	pk, _ := rec.PK()
	return pk
}

func sameInt(a, b protocol.Record, key string) bool {
	x, okA := a.Int(key)
	y, okB := b.Int(key)
	return okA && okB && x == y
}

func valueText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
