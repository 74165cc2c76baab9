package choice

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/meetform/structured"
	"github.com/tbxark/meetform/types"
)

const (
	chooseToolName        = "choose_pane_option"
	chooseToolDescription = "Pick the option the user chose on the form's pane: continue, cancel, keep_both, keep_new or none."
)

type chooseInput struct {
	Choice Choice `json:"choice" jsonschema:"required,enum=continue,enum=cancel,enum=keep_both,enum=keep_new,enum=none,description=The option the user chose"`
}

// ToolParser asks a chat model which option a free-form answer picks.
type ToolParser struct {
	chain *structured.Chain[Request, chooseInput]
}

func NewToolParser(chatModel model.ToolCallingChatModel) (*ToolParser, error) {
	chain, err := structured.NewChain[Request, chooseInput](
		chatModel,
		buildChoosePrompt,
		chooseToolName,
		chooseToolDescription,
	)
	if err != nil {
		return nil, err
	}
	return &ToolParser{chain: chain}, nil
}

func (p *ToolParser) Parse(ctx context.Context, req Request) (Choice, error) {
	result, err := p.chain.Invoke(ctx, req)
	if err != nil {
		return None, err
	}
	if result == nil || !result.Choice.IsValid() {
		return None, fmt.Errorf("%w: invalid choice returned by %s", ErrUnrecognized, chooseToolName)
	}
	if result.Choice != None && !isAllowed(req.State, result.Choice) {
		return None, fmt.Errorf("%w: %s is not offered", ErrUnrecognized, result.Choice)
	}
	return result.Choice, nil
}

func buildChoosePrompt(_ context.Context, req Request) ([]*schema.Message, error) {
	allowed := Allowed(req.State)
	if len(allowed) == 0 {
		return nil, fmt.Errorf("form in %s shows no options", req.State.Status)
	}
	names := make([]string, 0, len(allowed))
	for _, c := range allowed {
		names = append(names, string(c))
	}

	systemPrompt := fmt.Sprintf(`You help a swim meet official answer a prompt shown by a data-entry form.

The form is showing this pane:

%s
The options offered are: %s.
- continue: go ahead with the action the pane warns about, or close an error message.
- cancel: go back to editing without doing anything.
- keep_both: save the new record next to the existing duplicate.
- keep_new: replace the existing duplicate with the new record.
- none: the answer does not pick any option.

Only pick an option that is offered. Call the '%s' tool with the result.`,
		types.FormatState(req.State.FormState), strings.Join(names, ", "), chooseToolName)

	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(req.Answer),
	}, nil
}

var _ Parser = (*ToolParser)(nil)
