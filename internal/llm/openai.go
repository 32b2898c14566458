package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	assistantName        = "NeuroFlow Intake"
	assistantDescription = "Structured parsing and response generation for patient intake conversations."
	assistantInstr       = "You are the reasoning engine of a patient-intake system. Follow the per-message instructions exactly."

	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 45 * time.Second
	pollInterval   = 500 * time.Millisecond
)

// OpenAIGateway implements Gateway on top of the OpenAI Assistants API.
// Sessions map to threads; Send runs the assistant on the thread and reads
// the newest assistant message.  The assistant itself is provisioned lazily
// and exactly once per gateway instance.
type OpenAIGateway struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	log     *zap.Logger

	provision    sync.Once
	assistantID  string
	provisionErr error
}

// Option customises an OpenAIGateway.
type Option func(*OpenAIGateway)

// WithModel overrides the default chat model.
func WithModel(model string) Option {
	return func(g *OpenAIGateway) {
		if model != "" {
			g.model = model
		}
	}
}

// WithTimeout bounds each remote call.
func WithTimeout(d time.Duration) Option {
	return func(g *OpenAIGateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// NewOpenAIGateway constructs a gateway from an API key.
func NewOpenAIGateway(apiKey string, log *zap.Logger, opts ...Option) (*OpenAIGateway, error) {
	if apiKey == "" {
		return nil, errors.New("llm: api key is required")
	}
	g := &OpenAIGateway{
		client:  openai.NewClient(apiKey),
		model:   defaultModel,
		timeout: defaultTimeout,
		log:     log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// ensureAssistant provisions the reusable assistant persona.  Idempotent:
// redundant calls after the first are no-ops.
func (g *OpenAIGateway) ensureAssistant(ctx context.Context) (string, error) {
	g.provision.Do(func() {
		name := assistantName
		desc := assistantDescription
		instr := assistantInstr
		a, err := g.client.CreateAssistant(ctx, openai.AssistantRequest{
			Model:        g.model,
			Name:         &name,
			Description:  &desc,
			Instructions: &instr,
		})
		if err != nil {
			g.provisionErr = err
			return
		}
		g.assistantID = a.ID
		g.log.Info("assistant provisioned", zap.String("assistant_id", a.ID))
	})
	if g.provisionErr != nil {
		return "", &GatewayError{Op: "create assistant", Err: g.provisionErr}
	}
	return g.assistantID, nil
}

// CreateSession creates a fresh thread for one patient conversation.
func (g *OpenAIGateway) CreateSession(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if _, err := g.ensureAssistant(ctx); err != nil {
		return "", err
	}
	thread, err := g.client.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", &GatewayError{Op: "create thread", Err: err}
	}
	return thread.ID, nil
}

// Send posts the prompt on the thread, runs the assistant to completion and
// returns the newest assistant message verbatim.
func (g *OpenAIGateway) Send(ctx context.Context, sessionID, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	assistantID, err := g.ensureAssistant(ctx)
	if err != nil {
		return "", err
	}
	if _, err := g.client.CreateMessage(ctx, sessionID, openai.MessageRequest{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	}); err != nil {
		return "", &GatewayError{Op: "add message", Err: err}
	}
	run, err := g.client.CreateRun(ctx, sessionID, openai.RunRequest{AssistantID: assistantID})
	if err != nil {
		return "", &GatewayError{Op: "create run", Err: err}
	}
	if err := g.waitForRun(ctx, sessionID, run.ID); err != nil {
		return "", err
	}
	return g.latestAssistantMessage(ctx, sessionID)
}

// AddMemory appends content to the thread without running the assistant, so
// the remote side keeps it as conversation context for later retrieval.
func (g *OpenAIGateway) AddMemory(ctx context.Context, sessionID, content string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if _, err := g.ensureAssistant(ctx); err != nil {
		return err
	}
	_, err := g.client.CreateMessage(ctx, sessionID, openai.MessageRequest{
		Role:    openai.ChatMessageRoleUser,
		Content: content,
	})
	if err != nil {
		return &GatewayError{Op: "add memory", Err: err}
	}
	return nil
}

// waitForRun polls until the run reaches a terminal status.
func (g *OpenAIGateway) waitForRun(ctx context.Context, threadID, runID string) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		run, err := g.client.RetrieveRun(ctx, threadID, runID)
		if err != nil {
			return &GatewayError{Op: "retrieve run", Err: err}
		}
		switch run.Status {
		case openai.RunStatusCompleted:
			return nil
		case openai.RunStatusFailed, openai.RunStatusCancelled, openai.RunStatusExpired, openai.RunStatusRequiresAction:
			return &GatewayError{Op: "run", Err: fmt.Errorf("terminal status %s", run.Status)}
		}
		select {
		case <-ctx.Done():
			return &GatewayError{Op: "run", Err: ctx.Err()}
		case <-ticker.C:
		}
	}
}

// latestAssistantMessage reads the newest message on the thread and extracts
// its text content.
func (g *OpenAIGateway) latestAssistantMessage(ctx context.Context, threadID string) (string, error) {
	limit := 1
	order := "desc"
	msgs, err := g.client.ListMessage(ctx, threadID, &limit, &order, nil, nil, nil)
	if err != nil {
		return "", &GatewayError{Op: "list messages", Err: err}
	}
	if len(msgs.Messages) == 0 {
		return "", &GatewayError{Op: "list messages", Err: errors.New("empty reply")}
	}
	var text string
	for _, part := range msgs.Messages[0].Content {
		if part.Text != nil {
			text += part.Text.Value
		}
	}
	if text == "" {
		return "", &GatewayError{Op: "list messages", Err: errors.New("empty payload")}
	}
	return text, nil
}
