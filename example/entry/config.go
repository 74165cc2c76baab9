package main

import (
	"errors"
	"os"
	"time"

	"github.com/bytedance/sonic"
)

type LLMConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
}

type Config struct {
	// APIBaseURL of the persistence service. Empty starts an in-process one.
	APIBaseURL string     `json:"api_base_url"`
	Token      string     `json:"token"`
	Timeout    string     `json:"timeout"`
	MeetID     int64      `json:"meet_id"`
	Debug      bool       `json:"debug"`
	LLM        *LLMConfig `json:"llm,omitempty"`
}

func (c *Config) timeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Timeout)
}

func loadConfig(path string) (*Config, error) {
	conf := &Config{MeetID: 1}
	file, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return conf, nil
	}
	if err != nil {
		return nil, err
	}
	if err := sonic.Unmarshal(file, conf); err != nil {
		return nil, err
	}
	if conf.MeetID <= 0 {
		return nil, errors.New("meet_id must be positive")
	}
	return conf, nil
}
