package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/promptlift/internal/apperr"
	"github.com/kalambet/promptlift/internal/classify"
	"github.com/kalambet/promptlift/internal/convo"
	"github.com/kalambet/promptlift/internal/pipeline"
	"github.com/kalambet/promptlift/internal/questions"
	"github.com/kalambet/promptlift/internal/scoring"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Improver   *pipeline.Improver
	Classifier *classify.Classifier
	Questions  *questions.Catalog
	History    HistoryReader
}

const historyResourceURI = "promptlift://history"

// NewMCPServer creates an MCP server with the promptlift tools and resources registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	deps = deps.withDefaults()

	s := server.NewMCPServer(
		"promptlift",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("promptlift: classify, score and rewrite prompts before sending them to a chat assistant."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("classify_prompt",
			mcp.WithDescription("Classify a prompt into a subject domain using keyword matching."),
			mcp.WithString("prompt", mcp.Description("The prompt to classify"), mcp.Required()),
		),
		mcpClassify(deps),
	)

	s.AddTool(
		mcp.NewTool("score_prompt",
			mcp.WithDescription("Rate prompt quality from 0 to 100 with a per-dimension breakdown."),
			mcp.WithString("prompt", mcp.Description("The prompt to score"), mcp.Required()),
		),
		mcpScore(),
	)

	s.AddTool(
		mcp.NewTool("domain_questions",
			mcp.WithDescription("List the clarification questions for a domain."),
			mcp.WithString("domain", mcp.Description("Domain name, e.g. technical or fitness"), mcp.Required()),
		),
		mcpQuestions(deps),
	)

	s.AddTool(
		mcp.NewTool("improve_prompt",
			mcp.WithDescription("Rewrite a prompt into a clearer, more complete version for the target assistant."),
			mcp.WithString("prompt", mcp.Description("The prompt to improve"), mcp.Required()),
			mcp.WithString("platform", mcp.Description("Target assistant"), mcp.Required(), mcp.Enum(pipeline.Platforms...)),
			mcp.WithString("domain", mcp.Description("Domain override; classified automatically when omitted")),
			mcp.WithString("conversation_id", mcp.Description("Conversation whose stored context should be used")),
			mcp.WithObject("refinement_answers",
				mcp.Description("Answers to clarification questions keyed by question id; switches to refinement mode"),
				mcp.AdditionalProperties(map[string]any{"type": "string"}),
			),
		),
		mcpImprove(deps),
	)

	s.AddResource(
		mcp.NewResource(
			historyResourceURI,
			"Recent Improvements",
			mcp.WithResourceDescription("Last 10 prompt improvements"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceHistory(deps),
	)

	return s
}

func (d MCPDeps) withDefaults() MCPDeps {
	if d.Classifier == nil {
		d.Classifier = classify.Default()
	}
	if d.Questions == nil {
		d.Questions = questions.Default()
	}
	return d
}

func mcpClassify(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		prompt, err := req.RequireString("prompt")
		if err != nil {
			return mcpError("prompt is required"), nil
		}
		res, err := deps.Classifier.Classify(prompt)
		if err != nil {
			return mcpError(apperr.Message(err)), nil
		}
		return mcpJSON(res)
	}
}

func mcpScore() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		prompt, err := req.RequireString("prompt")
		if err != nil {
			return mcpError("prompt is required"), nil
		}
		b := scoring.Analyze(prompt)
		return mcpJSON(map[string]any{"score": b.Total(), "breakdown": b})
	}
}

func mcpQuestions(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		domain, err := req.RequireString("domain")
		if err != nil || domain == "" {
			return mcpError("domain is required"), nil
		}
		return mcpJSON(deps.Questions.For(classify.Domain(domain)))
	}
}

func mcpImprove(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if deps.Improver == nil {
			return mcpError("prompt improvement not available: no completion gateway configured"), nil
		}
		prompt, err := req.RequireString("prompt")
		if err != nil {
			return mcpError("prompt is required"), nil
		}
		platform, err := req.RequireString("platform")
		if err != nil {
			return mcpError("platform is required"), nil
		}
		answers, err := mcpAnswers(req.GetArguments()["refinement_answers"])
		if err != nil {
			return mcpError(err.Error()), nil
		}

		res, err := deps.Improver.Improve(ctx, pipeline.Request{
			Prompt:         prompt,
			Platform:       platform,
			Domain:         classify.Domain(req.GetString("domain", "")),
			Answers:        answers,
			ConversationID: req.GetString("conversation_id", ""),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("%s (%s)", apperr.Message(err), apperr.KindOf(err))), nil
		}
		return mcpJSON(newImproveResponse(res))
	}
}

// mcpAnswers converts the refinement_answers argument, an object of
// question id to answer value.
func mcpAnswers(v any) (convo.Answers, error) {
	if v == nil {
		return nil, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("refinement_answers must be an object")
	}
	answers := make(convo.Answers, len(obj))
	for id, val := range obj {
		s, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("refinement_answers.%s must be a string", id)
		}
		answers[id] = s
	}
	return answers, nil
}

func mcpResourceHistory(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		if deps.History == nil {
			return nil, fmt.Errorf("history not available")
		}
		interactions, err := deps.History.GetRecentInteractions(10)
		if err != nil {
			return nil, fmt.Errorf("failed to get recent interactions: %w", err)
		}

		type interactionSummary struct {
			ID          string `json:"id"`
			CreatedAt   string `json:"created_at"`
			Domain      string `json:"domain"`
			Platform    string `json:"platform"`
			Original    string `json:"original"`
			ScoreBefore int    `json:"score_before"`
			ScoreAfter  int    `json:"score_after"`
		}

		summaries := make([]interactionSummary, len(interactions))
		for i, ix := range interactions {
			original := ix.Original
			if utf8.RuneCountInString(original) > 200 {
				runes := []rune(original)
				original = string(runes[:200]) + "..."
			}
			summaries[i] = interactionSummary{
				ID:          ix.ID,
				CreatedAt:   ix.CreatedAt.Format(time.RFC3339),
				Domain:      ix.Domain,
				Platform:    ix.Platform,
				Original:    original,
				ScoreBefore: ix.ScoreBefore,
				ScoreAfter:  ix.ScoreAfter,
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal interactions: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
