// Package structured forces a chat model to answer through a single tool call and
// decodes the call's arguments into a Go value.
package structured

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

// ErrNoToolCall is returned when the model answers without calling the tool.
var ErrNoToolCall = errors.New("no tool call in model response")

type PromptBuilder[TInput any] func(ctx context.Context, input TInput) ([]*schema.Message, error)

type Chain[TInput, TOutput any] struct {
	prompt PromptBuilder[TInput]
	model  model.ToolCallingChatModel
	tool   *schema.ToolInfo
	logger *slog.Logger
}

func NewChain[TInput, TOutput any](
	chatModel model.ToolCallingChatModel,
	prompt PromptBuilder[TInput],
	toolName string,
	toolDesc string,
) (*Chain[TInput, TOutput], error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	toolInfo, err := utils.GoStruct2ToolInfo[TOutput](toolName, toolDesc)
	if err != nil {
		return nil, fmt.Errorf("convert tool info failed: %w", err)
	}
	return &Chain[TInput, TOutput]{
		prompt: prompt,
		model:  chatModel,
		tool:   toolInfo,
		logger: slog.Default(),
	}, nil
}

func (s *Chain[TInput, TOutput]) Invoke(ctx context.Context, input TInput) (*TOutput, error) {
	messages, err := s.prompt(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("build prompt failed: %w", err)
	}

	response, err := s.model.Generate(ctx, messages,
		model.WithTools([]*schema.ToolInfo{s.tool}),
		model.WithToolChoice(schema.ToolChoiceForced, s.tool.Name),
	)
	if err != nil {
		return nil, fmt.Errorf("call model failed: %w", err)
	}
	if len(response.ToolCalls) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoToolCall, response.Content)
	}

	args := response.ToolCalls[0].Function.Arguments
	s.logger.Debug("structured tool call", "tool", s.tool.Name, "arguments", args)
	var result TOutput
	if err := sonic.UnmarshalString(args, &result); err != nil {
		return nil, fmt.Errorf("parse %s arguments failed: %w", s.tool.Name, err)
	}
	return &result, nil
}

func (s *Chain[TInput, TOutput]) ToolInfo() *schema.ToolInfo {
	return s.tool
}
