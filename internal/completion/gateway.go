package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"chatgate/internal/session"
	"chatgate/pkg/logging"
)

// ErrNoCredentials means no credential strategy could authenticate the request.
var ErrNoCredentials = errors.New("no usable credentials for the model API")

// apologyFormat is the transcript entry written when a turn fails.
const apologyFormat = "Sorry, an error occurred: %s"

// Transcript is the conversation a turn reads from and appends to.
type Transcript interface {
	History() []session.ChatMessage
	Append(role session.Role, content string)
}

// Config configures a Gateway.
type Config struct {
	// Endpoint is the resource endpoint, e.g. https://myresource.openai.azure.com.
	Endpoint     string
	Deployment   string
	APIVersion   string
	MaxTokens    int64
	Temperature  float64
	SystemPrompt string
	// Timeout bounds a single completion call. Zero means no extra bound.
	Timeout time.Duration

	// Strategies are tried in order; the first that yields options is used.
	Strategies []CredentialStrategy

	HTTPClient *http.Client
}

// Gateway sends the transcript to the chat completions deployment.
type Gateway struct {
	client *openai.Client
	cfg    Config
}

// New creates a Gateway. Retries are disabled; a failed turn is reported to the user instead.
func New(cfg Config) *Gateway {
	opts := []option.RequestOption{
		option.WithBaseURL(DeploymentURL(cfg.Endpoint, cfg.Deployment)),
		option.WithQuery("api-version", cfg.APIVersion),
		option.WithMaxRetries(0),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Gateway{
		client: openai.NewClient(opts...),
		cfg:    cfg,
	}
}

// DeploymentURL returns the base URL of a deployment, with a trailing slash.
func DeploymentURL(endpoint, deployment string) string {
	return strings.TrimSuffix(endpoint, "/") + "/openai/deployments/" + deployment + "/"
}

// Complete sends the system prompt and history and returns the assistant reply.
func (g *Gateway) Complete(ctx context.Context, history []session.ChatMessage) (string, error) {
	if g.cfg.Endpoint == "" || g.cfg.Deployment == "" {
		return "", errors.New("model endpoint or deployment not configured")
	}

	auth, err := g.credentials(ctx)
	if err != nil {
		return "", err
	}

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	params := openai.ChatCompletionNewParams{
		Messages:    openai.F(g.messages(history)),
		Model:       openai.F(openai.ChatModel(g.cfg.Deployment)),
		MaxTokens:   openai.Int(g.cfg.MaxTokens),
		Temperature: openai.Float(g.cfg.Temperature),
	}

	start := time.Now()
	resp, err := g.client.Chat.Completions.New(ctx, params, auth...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}

	logging.Debug("Completion", "Completion finished in %v (prompt_tokens=%d completion_tokens=%d)",
		time.Since(start), resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	return resp.Choices[0].Message.Content, nil
}

// Respond runs one turn: it sends the transcript and appends exactly one
// assistant entry, either the reply or an apology carrying the error. The
// returned error is for logging only.
func (g *Gateway) Respond(ctx context.Context, t Transcript) (string, error) {
	reply, err := g.Complete(ctx, t.History())
	if err != nil {
		reply = fmt.Sprintf(apologyFormat, err)
	}
	t.Append(session.RoleAssistant, reply)
	return reply, err
}

func (g *Gateway) messages(history []session.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	msgs = append(msgs, openai.SystemMessage(g.cfg.SystemPrompt))
	for _, m := range history {
		switch m.Role {
		case session.RoleUser:
			msgs = append(msgs, openai.UserMessage(m.Content))
		case session.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		case session.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		}
	}
	return msgs
}

func (g *Gateway) credentials(ctx context.Context) ([]option.RequestOption, error) {
	var errs []error
	for _, s := range g.cfg.Strategies {
		opts, err := s.RequestOptions(ctx)
		if err == nil {
			return opts, nil
		}
		logging.Debug("Completion", "Credential strategy %q unavailable: %v", s.Name(), err)
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
	}
	return nil, fmt.Errorf("%w: %w", ErrNoCredentials, errors.Join(errs...))
}
