// Package agent runs the chat turn: it assembles the conversation, lets the
// language model decide which catalog tools to call, executes them, and
// returns the final answer. Tool failures become inline notices in the
// answer so the user still gets a partial response.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/seniormts/seniormts/internal/telemetry"
	"github.com/seniormts/seniormts/provider"
	"github.com/seniormts/seniormts/session"
	"github.com/seniormts/seniormts/tools"
)

// Config selects the agent's prompt and bounds the tool loop.
type Config struct {
	PromptVariant string
	MaxToolRounds int
}

type Agent struct {
	llm     provider.LLM
	catalog *tools.Catalog
	prompt  string
	rounds  int
	logger  *log.Logger
	now     func() time.Time
}

func New(cfg Config, llm provider.LLM, catalog *tools.Catalog, logger *log.Logger) (*Agent, error) {
	if llm == nil {
		return nil, fmt.Errorf("agent: llm is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("agent: tool catalog is required")
	}
	variant := cfg.PromptVariant
	if variant == "" {
		variant = DefaultPromptVariant
	}
	prompt, ok := prompts[variant]
	if !ok {
		return nil, fmt.Errorf("agent: unknown prompt variant %q", variant)
	}
	rounds := cfg.MaxToolRounds
	if rounds <= 0 {
		rounds = 4
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[AGENT] ", log.LstdFlags)
	}
	return &Agent{llm: llm, catalog: catalog, prompt: prompt, rounds: rounds, logger: logger, now: time.Now}, nil
}

// Run executes one chat turn against the given history and returns the
// agent's answer.
func (a *Agent) Run(ctx context.Context, history []session.Message, input string) (string, error) {
	msgs := make([]provider.Message, 0, len(history)+3)
	msgs = append(msgs, provider.Message{Role: "system", Content: a.prompt})
	msgs = append(msgs, provider.Message{
		Role:    "system",
		Content: "Current time: " + a.now().Format("2006-01-02 15:04:05"),
	})
	for _, m := range history {
		role := m.Role
		if role != session.RoleUser && role != session.RoleAssistant {
			continue
		}
		msgs = append(msgs, provider.Message{Role: role, Content: m.Content})
	}
	msgs = append(msgs, provider.Message{Role: "user", Content: input})

	specs := a.catalog.Specs()
	var notices []string

	for round := 0; round <= a.rounds; round++ {
		gen, err := a.llm.Generate(ctx, msgs, specs)
		if err != nil {
			return "", fmt.Errorf("generate: %w", err)
		}
		if len(gen.ToolCalls) == 0 {
			return withNotices(gen.Text, notices), nil
		}

		msgs = append(msgs, provider.Message{
			Role:      "assistant",
			Content:   gen.Text,
			ToolCalls: gen.ToolCalls,
		})
		for _, call := range gen.ToolCalls {
			result, notice := a.invoke(ctx, call)
			if notice != "" {
				notices = append(notices, notice)
			}
			msgs = append(msgs, provider.Message{
				Role:       "tool",
				Content:    result,
				ToolCallID: call.ID,
				Name:       call.Name,
			})
		}
	}

	// The model kept calling tools past the bound; force a final text answer.
	msgs = append(msgs, provider.Message{
		Role:    "system",
		Content: "Answer the user now with the information gathered so far. Do not call any more tools.",
	})
	gen, err := a.llm.Generate(ctx, msgs, nil)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return withNotices(gen.Text, notices), nil
}

// invoke runs one tool call. Failures are returned as a result string the
// model can read plus a user-facing notice; they never abort the turn.
func (a *Agent) invoke(ctx context.Context, call provider.ToolCall) (result, notice string) {
	tool, ok := a.catalog.Get(call.Name)
	if !ok {
		telemetry.ToolInvocations.WithLabelValues(call.Name, "unknown").Inc()
		a.logger.Printf("model requested unknown tool %q", call.Name)
		return fmt.Sprintf("tool %q is not available", call.Name), ""
	}

	args := map[string]interface{}{}
	if strings.TrimSpace(call.Arguments) != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			telemetry.ToolInvocations.WithLabelValues(call.Name, "error").Inc()
			a.logger.Printf("tool %q: bad arguments: %v", call.Name, err)
			return fmt.Sprintf("invalid arguments: %v", err), ""
		}
	}

	out, err := tool.Invoke(ctx, args)
	if err != nil {
		ierr := err
		if _, ok := err.(*tools.InvocationError); !ok {
			ierr = &tools.InvocationError{Tool: call.Name, Err: err}
		}
		telemetry.ToolInvocations.WithLabelValues(call.Name, "error").Inc()
		a.logger.Printf("%v", ierr)
		return fmt.Sprintf("tool failed: %v", err),
			fmt.Sprintf("%s 도구 실행 중 오류가 발생했습니다: %v", call.Name, err)
	}
	telemetry.ToolInvocations.WithLabelValues(call.Name, "ok").Inc()
	return out, ""
}

func withNotices(text string, notices []string) string {
	if len(notices) == 0 {
		return text
	}
	return strings.TrimRight(text, "\n") + "\n" + strings.Join(notices, "\n")
}
