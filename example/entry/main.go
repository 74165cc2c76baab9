package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"

	"github.com/tbxark/meetform/backendtest"
	"github.com/tbxark/meetform/choice"
	"github.com/tbxark/meetform/protocol"
	"github.com/tbxark/meetform/records"
	"github.com/tbxark/meetform/session"
)

func main() {
	conf := flag.String("config", "config.json", "path to config file")
	flag.Parse()
	config, err := loadConfig(*conf)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	err = startApp(context.Background(), config)
	if err != nil {
		log.Fatalf("start app: %v", err)
	}
}

func startApp(ctx context.Context, config *Config) error {
	if config.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	} else {
		slog.SetLogLoggerLevel(slog.LevelInfo)
	}

	baseURL := config.APIBaseURL
	if baseURL == "" {
		backend := backendtest.New(backendtest.Options{Token: config.Token})
		seedDemo(backend, config.MeetID)
		srv := backend.Start()
		defer srv.Close()
		baseURL = srv.URL
		slog.Info("started in-process persistence service", "url", baseURL)
	}
	timeout, err := config.timeout()
	if err != nil {
		return fmt.Errorf("parse timeout: %w", err)
	}
	client, err := protocol.NewClient(protocol.Config{
		BaseURL: baseURL,
		Timeout: timeout,
		Token:   config.Token,
	})
	if err != nil {
		return err
	}

	var parser choice.Parser = choice.NewKeywordParser()
	if config.LLM != nil && config.LLM.APIKey != "" {
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:  config.LLM.APIKey,
			Model:   config.LLM.Model,
			BaseURL: config.LLM.BaseURL,
		})
		if err != nil {
			return err
		}
		toolParser, err := choice.NewToolParser(cm)
		if err != nil {
			return err
		}
		parser = choice.NewFailbackParser(parser, toolParser)
	}

	app := &app{
		meet:     records.Meet{ID: config.MeetID},
		client:   client,
		registry: session.NewRegistry(nil),
		journal:  session.NewJournal(session.KeepFailuresLastNTrimmer{N: 20}, nil),
		parser:   parser,
		out:      os.Stdout,
	}
	ctx = session.WithFormKey(ctx, "entry")

	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("Meet %d data entry. Type 'help' for commands.\n", config.MeetID)
	for {
		fmt.Print("> ")
		input, rErr := reader.ReadString('\n')
		if rErr != nil {
			fmt.Println("input closed, bye.")
			break
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" {
			break
		}
		if err := app.handle(ctx, input); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
	_ = app.registry.Close(ctx)
	return nil
}

func seedDemo(backend *backendtest.Server, meetID int64) {
	sharks := backend.Seed(backendtest.KindTeam, protocol.Record{"name": "Sharks", "acronym": "SHK", records.MeetParam: meetID})
	backend.Seed(backendtest.KindTeam, protocol.Record{"name": "Dolphins", "acronym": "DOL", records.MeetParam: meetID})
	backend.Seed(backendtest.KindSwimmer, protocol.Record{
		"first_name": "Ada", "last_name": "Lane", "age": 11, "gender": "F",
		records.TeamParam: sharks["pk"], records.MeetParam: meetID,
	})
	backend.Seed(backendtest.KindEvent, protocol.Record{
		"event_number": 1, "stroke": "freestyle", "distance": 50, "competing_gender": "F",
		"competing_min_age": 9, "competing_max_age": 12, records.MeetParam: meetID,
	})
}
