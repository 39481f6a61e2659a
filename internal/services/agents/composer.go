// -----------------------------------------------------------------------
// Answer Composer - Claude-backed executor that retrieves evidence,
// assembles citations, and composes an answer grounded strictly in them.
// -----------------------------------------------------------------------

package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/tomus/internal/common"
	"github.com/ternarybob/tomus/internal/interfaces"
	"github.com/ternarybob/tomus/internal/models"
	"github.com/ternarybob/tomus/internal/services/citations"
)

const composerSystemPrompt = `You answer questions about municipal documents.
Use only the numbered evidence excerpts provided. Cite excerpts by number.
If the evidence does not answer the question, say so plainly.`

// Deps bundles the shared dependencies executors are built from
type Deps struct {
	Retriever interfaces.Retriever
	Assembler *citations.Assembler
	Config    common.AgentsConfig
	Logger    arbor.ILogger
}

// Composer is the default Claude-backed answer executor
type Composer struct {
	retriever interfaces.Retriever
	assembler *citations.Assembler
	client    anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
	topK      int
	logger    arbor.ILogger
}

// Compile-time interface assertion
var _ Executor = (*Composer)(nil)

// NewComposer creates the Claude answer composer
func NewComposer(deps Deps) (Executor, error) {
	logger := deps.Logger
	if logger == nil {
		logger = common.GetLogger()
	}
	if deps.Config.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if deps.Retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}

	timeout, err := time.ParseDuration(deps.Config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid agent timeout '%s': %w", deps.Config.Timeout, err)
	}

	return &Composer{
		retriever: deps.Retriever,
		assembler: deps.Assembler,
		client:    anthropic.NewClient(option.WithAPIKey(deps.Config.APIKey)),
		model:     deps.Config.Model,
		maxTokens: int64(deps.Config.MaxTokens),
		timeout:   timeout,
		topK:      10,
		logger:    logger,
	}, nil
}

// Name returns the composer's registry name
func (c *Composer) Name() string { return "composer" }

// Execute retrieves evidence for the question and asks the model to compose
// an answer grounded in it. No evidence above threshold means no model call;
// the answer reports insufficient grounding instead.
func (c *Composer) Execute(ctx context.Context, corpusID, question string) (*Answer, error) {
	evidence, err := c.retriever.Search(ctx, corpusID, question, models.SearchFilters{}, c.topK)
	if err != nil {
		return nil, fmt.Errorf("evidence retrieval failed: %w", err)
	}

	if len(evidence) == 0 {
		c.logger.Info().
			Str("corpus_id", corpusID).
			Str("question", question).
			Msg("No evidence above threshold, skipping model call")
		return &Answer{
			Text:     "The indexed documents contain no passages relevant to this question.",
			Grounded: false,
		}, nil
	}

	cites := c.assembler.Assemble(evidence)

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	message, err := c.client.Messages.New(callCtx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: composerSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(question, cites))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("answer composition failed: %w", err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	c.logger.Debug().
		Str("corpus_id", corpusID).
		Int("citations", len(cites)).
		Msg("Composed answer")

	return &Answer{
		Text:      text.String(),
		Citations: cites,
		Grounded:  true,
	}, nil
}

// buildPrompt numbers the citations and appends the question
func buildPrompt(question string, cites []models.Citation) string {
	var b strings.Builder
	b.WriteString("Evidence excerpts:\n\n")
	for i, cite := range cites {
		fmt.Fprintf(&b, "[%d] %s", i+1, cite.FilePath)
		if cite.Anchor != "" {
			fmt.Fprintf(&b, " (%s)", cite.Anchor)
		}
		fmt.Fprintf(&b, ":\n%s\n\n", cite.Text)
	}
	fmt.Fprintf(&b, "Question: %s", question)
	return b.String()
}
