package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/kalambet/promptlift/internal/classify"
	"github.com/kalambet/promptlift/internal/config"
	"github.com/kalambet/promptlift/internal/convo"
	"github.com/kalambet/promptlift/internal/questions"
	"github.com/kalambet/promptlift/internal/scoring"
	"github.com/kalambet/promptlift/internal/storage"
)

// --- classify ---

type classifyResponse struct {
	Domain     classify.Domain             `json:"domain"`
	Confidence float64                     `json:"confidence"`
	Scores     map[classify.Domain]float64 `json:"scores"`
}

var classifyCmd = &cobra.Command{
	Use:   "classify <prompt>",
	Short: "Show the detected domain of a prompt",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runClassify(cmd.Context(), client, os.Stdout, strings.Join(args, " "))
	},
}

func runClassify(ctx context.Context, client *apiClient, w io.Writer, prompt string) error {
	res, err := fetchClassification(ctx, client, prompt)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s (confidence %.2f)\n", colorize(colorBold, string(res.Domain)), res.Confidence)

	domains := make([]classify.Domain, 0, len(res.Scores))
	for d := range res.Scores {
		domains = append(domains, d)
	}
	sort.Slice(domains, func(i, j int) bool {
		if res.Scores[domains[i]] != res.Scores[domains[j]] {
			return res.Scores[domains[i]] > res.Scores[domains[j]]
		}
		return domains[i] < domains[j]
	})
	for _, d := range domains {
		if res.Scores[d] > 0 {
			fmt.Fprintf(w, "  %-12s %.1f\n", d, res.Scores[d])
		}
	}
	return nil
}

func fetchClassification(ctx context.Context, client *apiClient, prompt string) (classifyResponse, error) {
	resp, err := client.post(ctx, "/api/classify", map[string]string{"prompt": prompt})
	if err != nil {
		return classifyResponse{}, err
	}
	var res classifyResponse
	if err := decodeJSON(resp, &res); err != nil {
		return classifyResponse{}, err
	}
	return res, nil
}

// --- score ---

var scoreCmd = &cobra.Command{
	Use:   "score <prompt>",
	Short: "Rate prompt quality from 0 to 100",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runScore(cmd.Context(), client, os.Stdout, strings.Join(args, " "))
	},
}

func runScore(ctx context.Context, client *apiClient, w io.Writer, prompt string) error {
	resp, err := client.post(ctx, "/api/score", map[string]string{"prompt": prompt})
	if err != nil {
		return err
	}
	var res struct {
		Score     int               `json:"score"`
		Breakdown scoring.Breakdown `json:"breakdown"`
	}
	if err := decodeJSON(resp, &res); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s %d/100\n", colorize(colorBold, "Score:"), res.Score)
	fmt.Fprintf(w, "  clarity      %d\n", res.Breakdown.Clarity)
	fmt.Fprintf(w, "  structure    %d\n", res.Breakdown.Structure)
	fmt.Fprintf(w, "  completeness %d\n", res.Breakdown.Completeness)
	fmt.Fprintf(w, "  specificity  %d\n", res.Breakdown.Specificity)
	return nil
}

// --- questions ---

var questionsCmd = &cobra.Command{
	Use:   "questions <prompt>",
	Short: "List clarification questions for a prompt",
	Long: `List clarification questions for a prompt.

Without --domain the prompt is classified first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		domain, _ := cmd.Flags().GetString("domain")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runQuestions(cmd.Context(), client, os.Stdout, strings.Join(args, " "), classify.Domain(domain))
	},
}

func init() {
	questionsCmd.Flags().String("domain", "", "domain to use instead of classifying the prompt")
}

func runQuestions(ctx context.Context, client *apiClient, w io.Writer, prompt string, domain classify.Domain) error {
	if domain == "" {
		res, err := fetchClassification(ctx, client, prompt)
		if err != nil {
			return err
		}
		domain = res.Domain
	}

	resp, err := client.post(ctx, "/api/questions", map[string]any{"prompt": prompt, "domain": domain})
	if err != nil {
		return err
	}
	var res struct {
		Questions []questions.Question `json:"questions"`
	}
	if err := decodeJSON(resp, &res); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s %s\n", colorize(colorBold, "Domain:"), domain)
	for _, q := range res.Questions {
		fmt.Fprintf(w, "\n%s %s\n", colorize(colorCyan, "["+q.ID+"]"), q.Text)
		for _, a := range q.Answers {
			fmt.Fprintf(w, "  %s=%s\n", q.ID, a.Value)
		}
	}
	return nil
}

// --- improve ---

var improveCmd = &cobra.Command{
	Use:   "improve <prompt>",
	Short: "Rewrite a prompt for a chat assistant",
	Long: `Rewrite a prompt for a chat assistant.

Examples:
  promptlift improve "Fix this Python function"
  promptlift improve --platform chatgpt --domain fitness "plan my week"
  promptlift improve --conversation c1 --answer t1=python --answer t2=debug "Fix this Python function"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		platform, _ := cmd.Flags().GetString("platform")
		domain, _ := cmd.Flags().GetString("domain")
		conversation, _ := cmd.Flags().GetString("conversation")
		answers, _ := cmd.Flags().GetStringToString("answer")
		asJSON, _ := cmd.Flags().GetBool("json")

		req := improveRequest{
			Prompt:         strings.Join(args, " "),
			Platform:       platform,
			Domain:         classify.Domain(domain),
			ConversationID: conversation,
		}
		if len(answers) > 0 {
			req.RefinementAnswers = convo.Answers(answers)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runImprove(cmd.Context(), client, os.Stdout, req, asJSON)
	},
}

func init() {
	improveCmd.Flags().String("platform", "claude", "target assistant (chatgpt or claude)")
	improveCmd.Flags().String("domain", "", "domain to use instead of classifying the prompt")
	improveCmd.Flags().String("conversation", "", "conversation id whose saved context should be used")
	improveCmd.Flags().StringToString("answer", nil, "clarification answer as questionId=value (repeatable)")
	improveCmd.Flags().Bool("json", false, "print the raw JSON response")
}

type improveRequest struct {
	Prompt            string          `json:"prompt"`
	Platform          string          `json:"platform"`
	Domain            classify.Domain `json:"domain,omitempty"`
	RefinementAnswers convo.Answers   `json:"refinementAnswers,omitempty"`
	ConversationID    string          `json:"conversationId,omitempty"`
}

type improveResult struct {
	InteractionID string               `json:"interactionId"`
	Improved      string               `json:"improved"`
	Domain        classify.Domain      `json:"domain"`
	Score         scoring.Result       `json:"score"`
	Questions     []questions.Question `json:"questions"`
	ContextAware  bool                 `json:"contextAware"`
	IsRefinement  bool                 `json:"isRefinement"`
}

func runImprove(ctx context.Context, client *apiClient, w io.Writer, req improveRequest, asJSON bool) error {
	resp, err := client.post(ctx, "/api/improve", req)
	if err != nil {
		return err
	}
	var raw json.RawMessage
	if err := decodeJSON(resp, &raw); err != nil {
		return err
	}
	if asJSON {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		return printJSON(w, v)
	}

	var res improveResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	fmt.Fprintln(w, res.Improved)
	fmt.Fprintln(w)
	fprintStatus(w, "Domain", "%s", res.Domain)
	fprintStatus(w, "Score", "%d → %d (%+d)", res.Score.Before, res.Score.After, res.Score.Improvement)
	switch {
	case res.IsRefinement:
		fprintStatus(w, "Mode", "refinement")
	case res.ContextAware:
		fprintStatus(w, "Mode", "context-aware")
	}
	if len(res.Questions) > 0 {
		ids := make([]string, len(res.Questions))
		for i, q := range res.Questions {
			ids[i] = q.ID
		}
		fprintStatus(w, "Questions", "%s (answer with --answer id=value)", strings.Join(ids, ", "))
	}
	return nil
}

// --- context ---

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Manage saved conversation contexts",
}

var contextShowCmd = &cobra.Command{
	Use:   "show <conversation-id>",
	Short: "Print the saved context as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runContextShow(cmd.Context(), client, os.Stdout, args[0])
	},
}

var contextSaveCmd = &cobra.Command{
	Use:   "save <conversation-id> <file>",
	Short: "Save a context from a JSON file (- for stdin)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		if args[1] == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(args[1])
		}
		if err != nil {
			return fmt.Errorf("reading context: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := runContextSave(cmd.Context(), client, args[0], data); err != nil {
			return err
		}
		printSuccess("Saved context for %s", args[0])
		return nil
	},
}

var contextDeleteCmd = &cobra.Command{
	Use:   "delete <conversation-id>",
	Short: "Delete a saved context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := runContextDelete(cmd.Context(), client, args[0]); err != nil {
			return err
		}
		printSuccess("Deleted context for %s", args[0])
		return nil
	},
}

func init() {
	contextCmd.AddCommand(contextShowCmd)
	contextCmd.AddCommand(contextSaveCmd)
	contextCmd.AddCommand(contextDeleteCmd)
}

func contextPath(id string) string {
	return "/api/context/" + url.PathEscape(id)
}

func runContextShow(ctx context.Context, client *apiClient, w io.Writer, id string) error {
	resp, err := client.get(ctx, contextPath(id))
	if err != nil {
		return err
	}
	var res struct {
		Context convo.Context `json:"context"`
	}
	if err := decodeJSON(resp, &res); err != nil {
		return err
	}
	return printJSON(w, res.Context)
}

func runContextSave(ctx context.Context, client *apiClient, id string, data []byte) error {
	var c convo.Context
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("invalid context JSON: %w", err)
	}
	resp, err := client.post(ctx, "/api/context", map[string]any{"conversationId": id, "context": c})
	if err != nil {
		return err
	}
	var res map[string]any
	return decodeJSON(resp, &res)
}

func runContextDelete(ctx context.Context, client *apiClient, id string) error {
	resp, err := client.delete(ctx, contextPath(id))
	if err != nil {
		return err
	}
	var res map[string]any
	return decodeJSON(resp, &res)
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent improvements",
	Long: `List recent improvements, newest first.
With --conversation, list every improvement of that conversation, oldest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		conversation, _ := cmd.Flags().GetString("conversation")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runHistory(cmd.Context(), client, os.Stdout, limit, conversation)
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <interaction-id>",
	Short: "Show one recorded improvement in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runHistoryShow(cmd.Context(), client, os.Stdout, args[0])
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of entries to list")
	historyCmd.Flags().String("conversation", "", "only list improvements of this conversation")
	historyCmd.AddCommand(historyShowCmd)
}

const historyPreviewLen = 60

func runHistory(ctx context.Context, client *apiClient, w io.Writer, limit int, conversationID string) error {
	q := url.Values{}
	if conversationID != "" {
		q.Set("conversationId", conversationID)
	} else {
		q.Set("limit", strconv.Itoa(limit))
	}
	resp, err := client.get(ctx, "/api/history?"+q.Encode())
	if err != nil {
		return err
	}
	var res struct {
		Interactions []storage.Interaction `json:"interactions"`
	}
	if err := decodeJSON(resp, &res); err != nil {
		return err
	}

	if len(res.Interactions) == 0 {
		fmt.Fprintln(w, "No improvements recorded.")
		return nil
	}

	for _, ix := range res.Interactions {
		id := ix.ID
		if len(id) > 8 {
			id = id[:8]
		}
		fmt.Fprintf(w, "%s  %s  %-10s %3d → %3d  %s\n",
			colorize(colorCyan, id),
			ix.CreatedAt.Local().Format("2006-01-02 15:04"),
			ix.Domain,
			ix.ScoreBefore,
			ix.ScoreAfter,
			preview(ix.Original, historyPreviewLen),
		)
	}
	return nil
}

func runHistoryShow(ctx context.Context, client *apiClient, w io.Writer, id string) error {
	resp, err := client.get(ctx, "/api/history/"+url.PathEscape(id))
	if err != nil {
		return err
	}
	var res struct {
		Interaction storage.Interaction `json:"interaction"`
	}
	if err := decodeJSON(resp, &res); err != nil {
		return err
	}

	ix := res.Interaction
	fprintStatus(w, "ID", "%s", ix.ID)
	fprintStatus(w, "Created", "%s", ix.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if ix.ConversationID != "" {
		fprintStatus(w, "Conversation", "%s", ix.ConversationID)
	}
	fprintStatus(w, "Platform", "%s", ix.Platform)
	fprintStatus(w, "Domain", "%s (%s)", ix.Domain, ix.Mode)
	fprintStatus(w, "Score", "%d → %d", ix.ScoreBefore, ix.ScoreAfter)
	fmt.Fprintf(w, "\n%s\n%s\n", colorize(colorBold, "Original:"), ix.Original)
	fmt.Fprintf(w, "\n%s\n%s\n", colorize(colorBold, "Improved:"), ix.Improved)
	return nil
}

// preview flattens s to one line and truncates it to n runes.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: "Set a configuration value.\n\nValid keys: " + strings.Join(config.ValidKeys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key <api-key>",
	Short: "Store the gateway API key in the platform secret store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetAPIKey(args[0]); err != nil {
			return err
		}
		printSuccess("Gateway API key stored")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetKeyCmd)
}
