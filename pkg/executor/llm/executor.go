// Package llm is the LLM executor (spec §6 "Anthropic Messages API"). It
// performs CALL_ANTHROPIC / CANCEL_API_CALL effects and replies to the
// requesting agent with interpreter.ApiResponse or interpreter.ApiError.
package llm

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/codeready-toolchain/agentrooms/pkg/effects"
	"github.com/codeready-toolchain/agentrooms/pkg/interpreter"
	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

// Sender is the one method of *runtime.Runtime this package depends on
// (declared locally to avoid an import cycle, same rationale as
// pkg/executor/db.Sender).
type Sender interface {
	Send(target values.ActorAddress, msg any)
}

const defaultMaxTokens int64 = 4096

// Config configures the Anthropic HTTP client.
type Config struct {
	APIKey  string
	BaseURL string // empty uses the SDK default
}

// Executor adapts the Anthropic SDK to the runtime's LLMExecutor port.
type Executor struct {
	sdk    anthropic.Client
	sender Sender

	mu       sync.Mutex
	inFlight map[string]context.CancelFunc // replyTag -> cancel
}

// NewExecutor builds an Executor from Config. sender delivers the eventual
// ApiResponse/ApiError back to the agent that issued the call.
func NewExecutor(cfg Config, sender Sender) *Executor {
	opts := []option.RequestOption{option.WithAPIKey(strings.TrimSpace(cfg.APIKey))}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(base, "/")))
	}
	opts = append(opts, option.WithHTTPClient(http.DefaultClient))
	return &Executor{
		sdk:      anthropic.NewClient(opts...),
		sender:   sender,
		inFlight: map[string]context.CancelFunc{},
	}
}

// Execute performs one LLM effect. CALL_ANTHROPIC blocks its calling
// dispatcher goroutine for the duration of the HTTP round trip — the pool
// sizing in pkg/runtime.DispatcherConfig bounds how many run concurrently.
func (ex *Executor) Execute(e effects.Effect) {
	switch e.Kind {
	case effects.KindCallAnthropic:
		ex.callAnthropic(e)
	case effects.KindCancelAPICall:
		ex.cancel(e.ReplyTag)
	default:
		slog.Warn("llm executor received effect outside its category", "kind", e.Kind)
	}
}

func (ex *Executor) cancel(replyTag string) {
	ex.mu.Lock()
	cancel, ok := ex.inFlight[replyTag]
	ex.mu.Unlock()
	if ok {
		cancel()
	}
}

func (ex *Executor) callAnthropic(e effects.Effect) {
	req := e.LLMRequest
	if req == nil {
		slog.Error("CALL_ANTHROPIC effect missing LLMRequest payload")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	ex.mu.Lock()
	ex.inFlight[e.ReplyTag] = cancel
	ex.mu.Unlock()
	defer func() {
		ex.mu.Lock()
		delete(ex.inFlight, e.ReplyTag)
		ex.mu.Unlock()
		cancel()
	}()

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		Messages:    adaptMessages(req.Messages),
		MaxTokens:   defaultMaxTokens,
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if tools := adaptTools(req.Tools); len(tools) > 0 {
		params.Tools = tools
	}

	resp, err := ex.sdk.Messages.New(ctx, params)
	nowMS := time.Now().UnixMilli()

	if err != nil {
		if ctx.Err() != nil {
			// Cancelled by a superseding RespondToMessage; no reply needed,
			// the agent has already moved on to a fresh reply tag.
			return
		}
		ex.sender.Send(values.AgentAddress(req.AgentID), interpreter.ApiError{
			ReplyTag:    e.ReplyTag,
			Transient:   isTransient(err),
			RateLimited: isRateLimited(err),
			Message:     err.Error(),
			NowMS:       nowMS,
		})
		return
	}

	text, toolCalls := extractContent(resp)
	ex.sender.Send(values.AgentAddress(req.AgentID), interpreter.ApiResponse{
		ReplyTag:   e.ReplyTag,
		StopReason: string(resp.StopReason),
		Text:       text,
		ToolCalls:  toolCalls,
		NowMS:      nowMS,
	})
}

func extractContent(resp *anthropic.Message) (string, []interpreter.ApiToolUse) {
	var sb strings.Builder
	var calls []interpreter.ApiToolUse
	for _, block := range resp.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			sb.WriteString(v.Text)
		case anthropic.ToolUseBlock:
			input, _ := v.Input.(map[string]any)
			calls = append(calls, interpreter.ApiToolUse{ID: v.ID, Name: v.Name, Input: input})
		}
	}
	return sb.String(), calls
}

// adaptMessages converts the agent's rolling turn history into Anthropic
// message params. User/assistant turns map directly; tool turns become a
// user message carrying a tool_result block (spec §6 round trip).
func adaptMessages(turns []values.ConversationTurn) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case "user":
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Content)))
		case "assistant":
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.Content)))
		case "tool":
			out = append(out, anthropic.NewUserMessage(anthropic.NewToolResultBlock(t.ToolCallID, t.Content, false)))
		}
	}
	return out
}

func adaptTools(defs []effects.ToolDefinition) []anthropic.ToolUnionParam {
	if len(defs) == 0 {
		return nil
	}
	out := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, d := range defs {
		schema := anthropic.ToolInputSchemaParam{Type: constant.ValueOf[constant.Object]()}
		if props, ok := d.InputSchema["properties"]; ok {
			schema.Properties = props
		}
		if req, ok := d.InputSchema["required"].([]string); ok {
			schema.Required = req
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        d.Name,
			Description: anthropic.String(d.Description),
			InputSchema: schema,
		}})
	}
	return out
}

// isTransient reports whether err is worth retrying (network failure or a
// 5xx/429 from the API), matching spec §4.3's retry classification.
func isTransient(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 || apiErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}

func isRateLimited(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}
