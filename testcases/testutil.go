package testcases

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino-ext/components/model/openai"

	"github.com/tbxark/meetform"
	"github.com/tbxark/meetform/backendtest"
	"github.com/tbxark/meetform/protocol"
	"github.com/tbxark/meetform/records"
)

type Config struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
}

func loadConfig(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var conf Config
	err = sonic.Unmarshal(file, &conf)
	if err != nil {
		return nil, err
	}
	return &conf, nil
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{BaseURL:%q, Model:%q}", c.BaseURL, c.Model)
}

func InitChatModel(t *testing.T) *openai.ChatModel {
	if os.Getenv("MEETFORM_RUN_LIVE_TESTS") != "1" {
		t.Skip("set MEETFORM_RUN_LIVE_TESTS=1 to run live LLM tests")
		return nil
	}

	ctx := context.Background()
	conf, err := loadConfig("../config.json")
	if err != nil {
		t.Skipf("failed to load config: %v", err)
		return nil
	}
	if conf.APIKey == "" {
		t.Skip("config.json api_key is empty")
		return nil
	}
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  conf.APIKey,
		Model:   conf.Model,
		BaseURL: conf.BaseURL,
	})
	if err != nil {
		t.Fatalf("failed to init chat model: %v", err)
		return nil
	}
	return chatModel
}

// Meet is one swim meet served by an in-process persistence service.
type Meet struct {
	records.Meet
	Server *backendtest.Server
	Client *protocol.Client
}

func NewMeet(t *testing.T, opts backendtest.Options) *Meet {
	t.Helper()
	server := backendtest.New(opts)
	srv := server.Start()
	t.Cleanup(srv.Close)
	client, err := protocol.NewClient(protocol.Config{BaseURL: srv.URL, Token: opts.Token})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	return &Meet{Meet: records.Meet{ID: 1}, Server: server, Client: client}
}

// Seed stores rec in this meet.
func (m *Meet) Seed(kind string, rec protocol.Record) protocol.Record {
	rec[records.MeetParam] = m.ID
	return m.Server.Seed(kind, rec)
}

// Fetch reads a record the way a detail page would.
func (m *Meet) Fetch(t *testing.T, spec meetform.FormSpec, pk any) protocol.Record {
	t.Helper()
	recs, err := m.Client.List(context.Background(), spec.Route, nil)
	if err != nil {
		t.Fatalf("list %s: %v", spec.Name, err)
	}
	for _, rec := range recs {
		if got, ok := rec.PK(); ok && fmt.Sprint(got) == fmt.Sprint(pk) {
			return rec
		}
	}
	t.Fatalf("%s %v not found", spec.Name, pk)
	return nil
}

func (m *Meet) Open(t *testing.T, spec meetform.FormSpec, opts ...meetform.Option) *meetform.Engine {
	t.Helper()
	e, err := meetform.New(spec, m.Client, opts...)
	if err != nil {
		t.Fatalf("create %s form: %v", spec.Name, err)
	}
	if err := e.Mount(context.Background()); err != nil {
		t.Fatalf("mount %s form: %v", spec.Name, err)
	}
	return e
}

func Fill(t *testing.T, e *meetform.Engine, values map[string]any) {
	t.Helper()
	for name, value := range values {
		if err := e.Set(name, value); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}
}

// Pick types text into a reference and confirms it.
func Pick(t *testing.T, e *meetform.Engine, param, text string) int64 {
	t.Helper()
	r := e.Reference(param)
	if r == nil {
		t.Fatalf("form has no reference %s", param)
	}
	r.Type(text)
	return r.Blur().ID
}

// Handling lists the duplicate_handling of every mutation the service received.
func (m *Meet) Handling() []string {
	var out []string
	for _, c := range m.Server.Mutations() {
		out = append(out, c.Query.Get(protocol.ParamDuplicateHandling))
	}
	return out
}

func expectStatus(t *testing.T, out meetform.Outcome, err error, want meetform.Status) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.State.Status != want {
		t.Fatalf("expected status %s, got %s", want, out.State.Status)
	}
}

func expectError(t *testing.T, out meetform.Outcome, err error, title string) {
	t.Helper()
	expectStatus(t, out, err, meetform.StatusErrorShown)
	if out.State.Error.Title != title {
		t.Fatalf("expected error %q, got %q (%s)", title, out.State.Error.Title, out.State.Error.Description)
	}
}
