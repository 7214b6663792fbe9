package agent

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/webshop-agent/server/internal/agent/model"
	"github.com/webshop-agent/server/internal/agent/prompts"
	"github.com/webshop-agent/server/internal/agent/tools"
	errx "github.com/webshop-agent/server/internal/core/error"
	logx "github.com/webshop-agent/server/pkg/logger"
)

const (
	defaultHistoryMaxTurns = 20
	defaultToolMaxRounds   = 10
)

// Orchestrator runs the conversation loop: assemble messages, call the chat
// model with the tool declarations, execute requested tool calls, feed the
// results back, and repeat until the model stops. It keeps no state across
// calls; history is owned by the caller.
type Orchestrator struct {
	base            einomodel.ToolCallingChatModel
	withTools       einomodel.ToolCallingChatModel
	tools           *tools.Service
	systemPrompt    string
	historyMaxTurns int
	toolMaxRounds   int
}

func NewOrchestrator(chatModel einomodel.ToolCallingChatModel, svc *tools.Service, conv model.ConversationConfig) (*Orchestrator, error) {
	withTools, err := chatModel.WithTools(tools.Infos())
	if err != nil {
		return nil, fmt.Errorf("bind tools: %w", err)
	}

	historyMaxTurns := conv.History.MaxTurns
	if historyMaxTurns <= 0 {
		historyMaxTurns = defaultHistoryMaxTurns
	}
	toolMaxRounds := conv.Tools.MaxRounds
	if toolMaxRounds <= 0 {
		toolMaxRounds = defaultToolMaxRounds
	}

	return &Orchestrator{
		base:            chatModel,
		withTools:       withTools,
		tools:           svc,
		systemPrompt:    prompts.System(),
		historyMaxTurns: historyMaxTurns,
		toolMaxRounds:   toolMaxRounds,
	}, nil
}

// SendMessage answers one user message given the caller-owned history and
// returns the final answer text. Any schema violation or remote failure
// aborts the whole call; there is no partial answer.
func (o *Orchestrator) SendMessage(ctx context.Context, history []*schema.Message, userText string) (string, error) {
	msgs := o.assemble(history, userText)

	for round := 0; ; round++ {
		if round >= o.toolMaxRounds {
			return "", errx.Internal(fmt.Errorf("%w: %d rounds", errx.ErrToolRoundsExceeded, o.toolMaxRounds))
		}

		out, err := o.withTools.Generate(ctx, msgs)
		if err != nil {
			return "", err
		}

		if len(out.ToolCalls) > 0 {
			msgs = append(msgs, out)
			logx.Debug().Int("tool_count", len(out.ToolCalls)).Int("round", round).Msg("dispatching tool calls")
			for _, call := range out.ToolCalls {
				result, err := o.dispatch(ctx, call)
				if err != nil {
					return "", err
				}
				msgs = append(msgs, schema.ToolMessage(result, call.ID))
			}
			continue
		}

		if err := checkFinishReason(out); err != nil {
			return "", err
		}
		msgs = append(msgs, out)
		break
	}

	// One final call without tools renders the accumulated conversation
	// into the answer text.
	final, err := o.base.Generate(ctx, msgs)
	if err != nil {
		return "", err
	}
	return final.Content, nil
}

// assemble builds the message sequence: one leading system instruction
// (unless the history already carries one), the most recent history turns,
// then the new user message.
func (o *Orchestrator) assemble(history []*schema.Message, userText string) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(history)+2)
	if !hasSystemMessage(history) {
		msgs = append(msgs, schema.SystemMessage(o.systemPrompt))
	}

	if len(history) > o.historyMaxTurns {
		logx.Debug().
			Int("dropped", len(history)-o.historyMaxTurns).
			Int("max_turns", o.historyMaxTurns).
			Msg("truncating conversation history")
		history = history[len(history)-o.historyMaxTurns:]
	}
	msgs = append(msgs, history...)

	return append(msgs, schema.UserMessage(userText))
}

func hasSystemMessage(history []*schema.Message) bool {
	for _, m := range history {
		if m != nil && m.Role == schema.System {
			return true
		}
	}
	return false
}

// dispatch validates and executes a single tool call. An unknown tool name
// or invalid arguments abort the orchestration.
func (o *Orchestrator) dispatch(ctx context.Context, call schema.ToolCall) (string, error) {
	name := call.Function.Name
	logx.Debug().Str("tool", name).Str("call_id", call.ID).Msg("executing tool call")

	switch name {
	case tools.ToolSearchProductsVectorized:
		args, err := tools.DecodeSearchArgs(call.Function.Arguments)
		if err != nil {
			return "", err
		}
		hits, err := o.tools.SearchVectorized(ctx, args)
		if err != nil {
			return "", err
		}
		return tools.FormatHits(hits), nil

	case tools.ToolGetProductsByIDs:
		args, err := tools.DecodeLookupArgs(call.Function.Arguments)
		if err != nil {
			return "", err
		}
		return o.tools.GetProductsByIDs(ctx, args)

	default:
		return "", errx.WrapSchema(fmt.Errorf("unrecognized tool %q", name))
	}
}

// checkFinishReason maps the model's finish signal onto the loop outcome.
// Everything except a normal stop is fatal and never retried. An absent
// reason deliberately counts as a stop: providers do not reliably set
// ResponseMeta, and only named-but-unrecognized signals are treated as
// schema violations.
func checkFinishReason(out *schema.Message) error {
	reason := ""
	if out.ResponseMeta != nil {
		reason = strings.ToLower(strings.TrimSpace(out.ResponseMeta.FinishReason))
	}
	switch reason {
	case "", "stop":
		return nil
	case "length", "max_tokens":
		return errx.Internal(errx.ErrModelTruncated)
	case "content_filter", "safety":
		return errx.Internal(errx.ErrContentFiltered)
	case "function_call":
		return errx.WrapSchema(fmt.Errorf("deprecated function_call finish reason"))
	default:
		return errx.WrapSchema(fmt.Errorf("unrecognized finish reason %q", reason))
	}
}
