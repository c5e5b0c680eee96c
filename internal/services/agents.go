package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hakwon-labs/studycoach-backend/internal/llm"
	"github.com/hakwon-labs/studycoach-backend/internal/types"
)

// AgentRequest is the slice of the chat request an agent is allowed to see.
type AgentRequest struct {
	StudentID string
	Message   string
	Metadata  map[string]interface{}
}

// AgentResult is free-form text plus structured actions. The engine treats
// the text as opaque; only the actions feed back into domain state.
type AgentResult struct {
	Message           string              `json:"message"`
	Actions           []types.AgentAction `json:"actions,omitempty"`
	SuggestedFollowUp []string            `json:"suggested_follow_up,omitempty"`
}

// Agent is the single capability every role implements. Dispatch happens
// through a table keyed by the role enum, keeping the router decoupled from
// agent internals.
type Agent interface {
	Process(ctx context.Context, req AgentRequest, bundle *types.ContextBundle) (*AgentResult, error)
}

// AgentTable holds one agent per role plus the deterministic fallback used
// when the routed agent fails twice.
type AgentTable struct {
	agents   map[types.AgentRole]Agent
	fallback Agent
}

func NewAgentTable(client llm.Client) *AgentTable {
	return &AgentTable{
		agents: map[types.AgentRole]Agent{
			types.RoleAdmission: &llmAgent{client: client, role: types.RoleAdmission, complexity: 0.3},
			types.RolePlanner:   &llmAgent{client: client, role: types.RolePlanner, complexity: 0.7},
			types.RoleCoach:     &llmAgent{client: client, role: types.RoleCoach, complexity: 0.3},
			types.RoleAnalyst:   &llmAgent{client: client, role: types.RoleAnalyst, complexity: 0.6},
		},
		fallback: &templateAgent{},
	}
}

// Lookup returns the agent for a role, falling back to the coach agent for
// an unknown role value.
func (t *AgentTable) Lookup(role types.AgentRole) Agent {
	if a, ok := t.agents[role]; ok {
		return a
	}
	return t.agents[types.RoleCoach]
}

func (t *AgentTable) Fallback() Agent { return t.fallback }

// rolePrompts is intentionally minimal; agent wording is an external
// collaborator concern, not engine behavior.
var rolePrompts = map[types.AgentRole]string{
	types.RoleAdmission: "You are an onboarding assistant for a student planner. Assess the student's level and goals.",
	types.RolePlanner:   "You are a study planner. Propose concrete scheduling steps grounded in the provided context.",
	types.RoleCoach:     "You are a supportive study coach. Answer briefly and concretely using the provided context.",
	types.RoleAnalyst:   "You are a learning analyst. Summarize progress and weak areas from the provided context.",
}

// llmAgent is a thin wrapper: serialize the bundle, call the model at the
// role's complexity tier, parse structured output if present.
type llmAgent struct {
	client     llm.Client
	role       types.AgentRole
	complexity float64
}

func (a *llmAgent) Process(ctx context.Context, req AgentRequest, bundle *types.ContextBundle) (*AgentResult, error) {
	contextJSON, err := json.Marshal(bundle)
	if err != nil {
		return nil, fmt.Errorf("agent %s: marshal context: %w", a.role, err)
	}
	completion, err := a.client.CallWithComplexity(ctx, llm.ComplexityInput{
		Complexity: a.complexity,
		Messages: []llm.Message{
			{Role: "system", Content: rolePrompts[a.role] + "\n\nContext:\n" + string(contextJSON)},
			{Role: "user", Content: req.Message},
		},
	})
	if err != nil {
		return nil, err
	}
	return parseAgentOutput(completion.Content)
}

// parseAgentOutput accepts either a bare text reply or a JSON object with
// message/actions fields. Anything unparseable as JSON is treated as text;
// an empty reply is malformed output and triggers the retry path upstream.
func parseAgentOutput(content string) (*AgentResult, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, fmt.Errorf("agent returned empty output")
	}
	if strings.HasPrefix(trimmed, "{") {
		var out AgentResult
		if err := json.Unmarshal([]byte(trimmed), &out); err == nil && out.Message != "" {
			return &out, nil
		}
	}
	return &AgentResult{Message: trimmed}, nil
}

// templateAgent is the deterministic last resort. It never errors and never
// calls out, so a double agent failure still yields a usable reply.
type templateAgent struct{}

func (a *templateAgent) Process(ctx context.Context, req AgentRequest, bundle *types.ContextBundle) (*AgentResult, error) {
	var b strings.Builder
	b.WriteString("지금은 자세한 답변을 준비하지 못했어요. ")
	if bundle != nil && len(bundle.TodayQuests) > 0 {
		fmt.Fprintf(&b, "오늘 퀘스트 %d개가 기다리고 있어요:", len(bundle.TodayQuests))
		for _, q := range bundle.TodayQuests {
			fmt.Fprintf(&b, "\n- %s (%d분)", q.Title, q.EstimatedMinutes)
		}
	} else {
		b.WriteString("잠시 후 다시 물어봐 주세요.")
	}
	return &AgentResult{
		Message:           b.String(),
		SuggestedFollowUp: []string{"오늘 뭐 공부해?"},
	}, nil
}
