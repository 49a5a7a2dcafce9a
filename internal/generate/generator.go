// Package generate turns outline operations into requests against a text
// generation provider: structure drafts, prose continuations, summaries,
// endings and intro options.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Nhatlinh9898/novelvip/internal/llm"
	"github.com/Nhatlinh9898/novelvip/internal/outline"
	"github.com/Nhatlinh9898/novelvip/internal/token"
	"github.com/Nhatlinh9898/novelvip/pkg/types"
)

var (
	// ErrConfiguration is returned when required input is missing. No
	// request is sent.
	ErrConfiguration = errors.New("configuration error")

	// ErrGeneration is returned when the provider fails or its reply cannot
	// be used.
	ErrGeneration = errors.New("generation failed")
)

const (
	// SummaryInputLimit caps how many characters of content are summarized.
	SummaryInputLimit = 10000

	// ContinueThinkingBudget is the reasoning budget for prose continuation.
	ContinueThinkingBudget = 2048

	defaultContextBudget = 6000
)

// Tier picks a model by its quality and latency tradeoff.
type Tier int

const (
	// TierFast serves structured and short replies.
	TierFast Tier = iota
	// TierQuality serves long-form prose and style imitation.
	TierQuality
)

// Models maps tiers to provider model names. Empty names use the provider
// default.
type Models struct {
	Fast    string
	Quality string
}

func (m Models) forTier(t Tier) string {
	if t == TierQuality && m.Quality != "" {
		return m.Quality
	}
	return m.Fast
}

// NodeRef is the part of a node a prompt needs.
type NodeRef struct {
	Level   outline.Level
	Title   string
	Summary string
}

// RefOf returns the prompt view of n.
func RefOf(n outline.Node) NodeRef {
	return NodeRef{Level: n.Level, Title: n.Title, Summary: n.Summary}
}

// Ending is a generated closing passage and the lead-in to what follows.
type Ending struct {
	Ending     string
	Transition string
}

// Generator runs generation requests against a provider. It holds no
// per-request state and is safe for concurrent use.
type Generator struct {
	provider      llm.Provider
	models        Models
	language      string
	logger        *slog.Logger
	fitter        token.Fitter
	contextBudget int
	validate      *validator.Validate
}

// Option configures a Generator.
type Option func(*Generator)

// WithModels sets the model used for each tier.
func WithModels(m Models) Option {
	return func(g *Generator) {
		g.models = m
	}
}

// WithLanguage sets the language generated text is written in.
func WithLanguage(lang string) Option {
	return func(g *Generator) {
		g.language = lang
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithFitter sets the token counter used to bound continuation context.
func WithFitter(f token.Fitter) Option {
	return func(g *Generator) {
		if f != nil {
			g.fitter = f
		}
	}
}

// WithContextBudget caps the continuation context in tokens.
func WithContextBudget(tokens int) Option {
	return func(g *Generator) {
		if tokens > 0 {
			g.contextBudget = tokens
		}
	}
}

// New creates a Generator for the provider.
func New(provider llm.Provider, opts ...Option) *Generator {
	g := &Generator{
		provider:      provider,
		language:      "Vietnamese",
		logger:        slog.New(slog.DiscardHandler),
		fitter:        token.Estimator{},
		contextBudget: defaultContextBudget,
		validate:      validator.New(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Structure generates an outline draft for the premise.
func (g *Generator) Structure(ctx context.Context, cfg types.NovelConfig) (outline.Draft, error) {
	cfg.PlotIdea = strings.TrimSpace(cfg.PlotIdea)
	if err := g.validate.Struct(cfg); err != nil {
		return outline.Draft{}, configError(err)
	}

	reply, err := g.chat(ctx, "structure", TierFast, structurePrompt(cfg), structureSchema, 0)
	if err != nil {
		return outline.Draft{}, err
	}

	raw := llm.ExtractJSON(reply)
	if !json.Valid([]byte(raw)) {
		return outline.Draft{}, fmt.Errorf("%w: structure: %w", ErrGeneration, llm.ErrInvalidJSON)
	}
	// A draft that parses but misses fields is still imported; the mapper
	// fills the gaps.
	if err := structureSchema.Validate([]byte(raw)); err != nil {
		g.logger.WarnContext(ctx, "structure draft does not match schema", slog.Any("error", err))
	}
	draft := outline.DecodeDraft([]byte(raw))
	if draft.IsEmpty() {
		return outline.Draft{}, fmt.Errorf("%w: structure: reply has no outline", ErrGeneration)
	}
	return draft, nil
}

// Continue generates prose to append to the node. The reply is returned
// verbatim, so leading whitespace the model chose survives the append. An
// empty reply yields "".
func (g *Generator) Continue(ctx context.Context, node NodeRef, storyContext string) (string, error) {
	storyContext = g.fitter.TruncateToFit(storyContext, g.contextBudget, true)
	reply, err := g.chat(ctx, "continue", TierQuality, continuePrompt(node, storyContext), nil, ContinueThinkingBudget)
	if err != nil {
		return "", err
	}
	return reply, nil
}

// Summarize summarizes the first SummaryInputLimit characters of content.
func (g *Generator) Summarize(ctx context.Context, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: no content to summarize", ErrConfiguration)
	}
	reply, err := g.chat(ctx, "summarize", TierFast, summaryPrompt(Prefix(content, SummaryInputLimit)), summarySchema, 0)
	if err != nil {
		return "", err
	}

	fields, err := decodeFields(reply, summarySchema)
	if err != nil {
		return "", fmt.Errorf("%w: summarize: %w", ErrGeneration, err)
	}
	return fields.first("summary", "TomTat"), nil
}

// Ending generates a closing passage and a transition for the node. Absent
// fields come back empty.
func (g *Generator) Ending(ctx context.Context, node NodeRef) (Ending, error) {
	reply, err := g.chat(ctx, "ending", TierFast, endingPrompt(node), endingSchema, 0)
	if err != nil {
		return Ending{}, err
	}

	fields, err := decodeFields(reply, endingSchema)
	if err != nil {
		return Ending{}, fmt.Errorf("%w: ending: %w", ErrGeneration, err)
	}
	return Ending{
		Ending:     fields.first("ending", "KetThuc"),
		Transition: fields.first("transition", "DanChuyen"),
	}, nil
}

// IntroOptions generates candidate opening narrations in the given style.
// At least one option is returned on success.
func (g *Generator) IntroOptions(ctx context.Context, style string) ([]string, error) {
	reply, err := g.chat(ctx, "intro", TierQuality, introPrompt(style), introSchema, 0)
	if err != nil {
		return nil, err
	}

	var out struct {
		Options []string `json:"options"`
	}
	if err := introSchema.DecodeValid(reply, &out); err != nil {
		return nil, fmt.Errorf("%w: intro: %w", ErrGeneration, err)
	}

	options := make([]string, 0, len(out.Options))
	for _, opt := range out.Options {
		if opt = strings.TrimSpace(opt); opt != "" {
			options = append(options, opt)
		}
	}
	if len(options) == 0 {
		return nil, fmt.Errorf("%w: intro: no options returned", ErrGeneration)
	}
	return options, nil
}

// chat sends one system+user exchange and returns the reply text.
func (g *Generator) chat(ctx context.Context, op string, tier Tier, prompt string, schema *llm.Schema, thinking int) (string, error) {
	req := llm.ChatRequest{
		Messages: []llm.ChatMessage{
			llm.NewSystemMessage(systemPrompt(g.language)),
			llm.NewUserMessage(prompt),
		},
		Model:          g.models.forTier(tier),
		ThinkingBudget: thinking,
	}
	if schema != nil {
		req.ResponseFormat = llm.FormatJSON
		req.ResponseSchema = schema.Document()
	}

	g.logger.DebugContext(ctx, "generation request",
		slog.String("op", op),
		slog.String("model", req.Model),
		slog.Int("prompt_tokens", g.fitter.Count(prompt)))

	resp, err := g.provider.Chat(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrGeneration, op, err)
	}
	return resp.Message.Content, nil
}

// fields is a decoded JSON object of string values.
type fields map[string]any

// first returns the first key holding a string.
func (f fields) first(keys ...string) string {
	for _, k := range keys {
		if s, ok := f[k].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func decodeFields(reply string, schema *llm.Schema) (fields, error) {
	var f fields
	if err := schema.DecodeValid(reply, &f); err != nil {
		return nil, err
	}
	return f, nil
}

// Prefix returns at most n characters of s without splitting a rune.
func Prefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func configError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		names := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			names = append(names, fieldLabel(fe.Field()))
		}
		return fmt.Errorf("%w: %s is required", ErrConfiguration, strings.Join(names, ", "))
	}
	return fmt.Errorf("%w: %v", ErrConfiguration, err)
}

func fieldLabel(field string) string {
	switch field {
	case "PlotIdea":
		return "core plot idea"
	default:
		return strings.ToLower(field)
	}
}
