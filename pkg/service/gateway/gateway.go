package gateway

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"

	"github.com/companion-lab/mnemosyne/pkg/domain/types"
	"github.com/companion-lab/mnemosyne/pkg/utils/logging"
)

// ClientConfig carries the optional tuning knobs a client is built with.
// Fields here are exactly the ones the gateway may strip on an
// unsupported-field rejection.
type ClientConfig struct {
	// ThinkingBudget caps the model's internal reasoning tokens. Zero
	// leaves the provider default.
	ThinkingBudget int32
}

// ClientFactory builds a gollem client bound to one API key. The gateway
// constructs a client per attempt so credential rotation works with
// providers that fix the key at client construction time.
type ClientFactory func(ctx context.Context, apiKey string, cfg ClientConfig) (gollem.LLMClient, error)

// Gateway is the single boundary to the generative model service. It owns
// credential rotation, error classification, and the strip-and-retry
// behavior for optional config fields the provider may reject.
type Gateway struct {
	factory        ClientFactory
	rotator        *Rotator
	thinkingBudget int32
}

// Option configures a Gateway
type Option func(*Gateway)

// WithThinkingBudget sets the reasoning-token cap passed to the client
// factory. Models that reject the field trigger one retry without it.
func WithThinkingBudget(budget int32) Option {
	return func(g *Gateway) {
		g.thinkingBudget = budget
	}
}

// New creates a Gateway
func New(factory ClientFactory, rotator *Rotator, opts ...Option) *Gateway {
	g := &Gateway{
		factory: factory,
		rotator: rotator,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Input describes one generation request
type Input struct {
	SystemPrompt string
	Prompt       string

	// Schema requests structured JSON output. When the provider rejects
	// the schema field, the call is retried exactly once without it (the
	// prompt still instructs JSON, so parsing proceeds either way).
	Schema *gollem.Parameter
}

// GenerateText runs one generation call and returns the raw text output.
// Failures are retried across the credential pool; an empty model output
// is an error, distinct from any in-character refusal.
func (g *Gateway) GenerateText(ctx context.Context, in Input) (string, error) {
	var out string
	err := g.rotator.Do(ctx, func(ctx context.Context, apiKey string) error {
		text, err := g.generate(ctx, apiKey, in)
		if err != nil {
			return err
		}
		out = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// GenerateJSON runs one generation call with a JSON response schema and
// unmarshals the result into out.
func (g *Gateway) GenerateJSON(ctx context.Context, in Input, out any) error {
	text, err := g.GenerateText(ctx, in)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return goerr.Wrap(err, "failed to parse model JSON output", goerr.V("response", text))
	}
	return nil
}

func (g *Gateway) generate(ctx context.Context, apiKey string, in Input) (string, error) {
	client, err := g.factory(ctx, apiKey, ClientConfig{ThinkingBudget: g.thinkingBudget})
	if err != nil {
		return "", goerr.Wrap(err, "failed to create model client")
	}

	text, err := g.generateOnce(ctx, client, in)
	if err == nil {
		return text, nil
	}

	// Exactly one retry with the rejected optional field removed. The
	// error text names which field the provider refused.
	if types.ClassifyGatewayError(err) == types.GatewayErrorUnsupportedField {
		switch {
		case g.thinkingBudget != 0 && mentionsThinkingBudget(err):
			logging.From(ctx).Debug("provider rejected thinking budget, retrying without it",
				"error", err.Error())
			retryClient, cerr := g.factory(ctx, apiKey, ClientConfig{})
			if cerr != nil {
				return "", goerr.Wrap(cerr, "failed to create model client for retry")
			}
			return g.generateOnce(ctx, retryClient, in)

		case in.Schema != nil:
			logging.From(ctx).Debug("provider rejected response schema, retrying without it",
				"error", err.Error())
			stripped := in
			stripped.Schema = nil
			return g.generateOnce(ctx, client, stripped)
		}
	}

	return "", err
}

func mentionsThinkingBudget(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "thinking")
}

func (g *Gateway) generateOnce(ctx context.Context, client gollem.LLMClient, in Input) (string, error) {
	opts := []gollem.SessionOption{}
	if in.SystemPrompt != "" {
		opts = append(opts, gollem.WithSessionSystemPrompt(in.SystemPrompt))
	}
	if in.Schema != nil {
		opts = append(opts,
			gollem.WithSessionContentType(gollem.ContentTypeJSON),
			gollem.WithSessionResponseSchema(in.Schema),
		)
	}

	session, err := client.NewSession(ctx, opts...)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create model session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(in.Prompt))
	if err != nil {
		return "", goerr.Wrap(err, "model generation failed",
			goerr.V("kind", types.ClassifyGatewayError(err)))
	}
	if resp == nil || len(resp.Texts) == 0 || resp.Texts[0] == "" {
		return "", goerr.New("model returned no usable output")
	}

	return resp.Texts[0], nil
}
