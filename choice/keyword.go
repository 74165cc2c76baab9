package choice

import (
	"context"
	"strings"
)

// KeywordParser matches the whole answer against fixed keywords.
type KeywordParser struct {
	Keywords map[Choice][]string
}

func NewKeywordParser() *KeywordParser {
	return &KeywordParser{
		Keywords: map[Choice][]string{
			Continue: {"continue", "confirm", "proceed", "yes", "y", "ok", "dismiss"},
			Cancel:   {"cancel", "back", "no", "n", "abort"},
			KeepBoth: {"keep both", "keep_both", "both"},
			KeepNew:  {"keep new", "keep_new", "new", "replace"},
		},
	}
}

func (p *KeywordParser) Parse(_ context.Context, req Request) (Choice, error) {
	normalized := strings.ToLower(strings.Join(strings.Fields(req.Answer), " "))
	for _, c := range Allowed(req.State) {
		for _, keyword := range p.Keywords[c] {
			if normalized == keyword {
				return c, nil
			}
		}
	}
	return None, ErrUnrecognized
}

// FailbackParser returns the answer of the first parser that succeeds.
type FailbackParser struct {
	parsers []Parser
}

func NewFailbackParser(parsers ...Parser) *FailbackParser {
	return &FailbackParser{parsers: parsers}
}

func (p *FailbackParser) Parse(ctx context.Context, req Request) (Choice, error) {
	lastErr := ErrUnrecognized
	for _, parser := range p.parsers {
		c, err := parser.Parse(ctx, req)
		if err == nil {
			return c, nil
		}
		lastErr = err
	}
	return None, lastErr
}

var (
	_ Parser = (*KeywordParser)(nil)
	_ Parser = (*FailbackParser)(nil)
)
