package conversation

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"

	"github.com/companion-lab/mnemosyne/pkg/domain/model"
	"github.com/companion-lab/mnemosyne/pkg/service/gateway"
)

//go:embed prompt/chat_system.md
var chatSystemPromptTmpl string

var chatSystemPrompt = template.Must(template.New("chat_system").Parse(chatSystemPromptTmpl))

// historyWindow bounds the short-term chat history embedded in the prompt
const historyWindow = 20

// Service is the persona conversational engine. Generation and
// summarization are a hard-failure domain: errors surface to the caller,
// which must leave stored state untouched.
type Service struct {
	gw ModelGateway
}

// ModelGateway is the slice of the gateway the conversational engine needs
type ModelGateway interface {
	GenerateText(ctx context.Context, in gateway.Input) (string, error)
	GenerateJSON(ctx context.Context, in gateway.Input, out any) error
}

// New creates a conversation Service
func New(gw ModelGateway) *Service {
	return &Service{gw: gw}
}

// Input carries everything one generation turn needs
type Input struct {
	Persona   *model.Persona
	Profile   model.UserProfile
	Retrieved []model.RetrievedMemory
	History   []model.ChatMessage
	Message   string
	Now       time.Time
}

// Result is the persona's reply plus the memory change set it emitted
type Result struct {
	Response string
	Deltas   model.MemoryDeltas
}

type chatResponse struct {
	Response        string   `json:"response"`
	NewMemories     []string `json:"new_memories"`
	RemovedMemories []string `json:"removed_memories"`
}

// Chat composes the persona prompt and runs one generation turn. An empty
// model output is a generation error; an in-character deflection is valid
// output and not an error.
func (s *Service) Chat(ctx context.Context, in Input) (*Result, error) {
	systemPrompt, err := buildChatSystemPrompt(in)
	if err != nil {
		return nil, err
	}

	var resp chatResponse
	req := gateway.Input{
		SystemPrompt: systemPrompt,
		Prompt:       buildChatPrompt(in),
		Schema:       chatSchema(),
	}
	if err := s.gw.GenerateJSON(ctx, req, &resp); err != nil {
		return nil, goerr.Wrap(err, "chat generation failed",
			goerr.V("persona", in.Persona.ID))
	}
	if strings.TrimSpace(resp.Response) == "" {
		return nil, goerr.New("model returned an empty reply",
			goerr.V("persona", in.Persona.ID))
	}

	return &Result{
		Response: resp.Response,
		Deltas: model.MemoryDeltas{
			NewMemories:     resp.NewMemories,
			RemovedMemories: resp.RemovedMemories,
		},
	}, nil
}

type chatPromptData struct {
	Persona     *model.Persona
	UserDetails string
	Memories    []string
	Retrieved   []model.RetrievedMemory
	TimeHint    string
	Today       string
}

func buildChatSystemPrompt(in Input) (string, error) {
	var details string
	if !in.Profile.Empty() {
		var parts []string
		if in.Profile.Name != "" {
			parts = append(parts, "Name: "+in.Profile.Name)
		}
		if in.Profile.About != "" {
			parts = append(parts, "About: "+in.Profile.About)
		}
		details = strings.Join(parts, "\n")
	}

	data := chatPromptData{
		Persona:     in.Persona,
		UserDetails: details,
		Memories:    in.Persona.Memories,
		Retrieved:   in.Retrieved,
		TimeHint:    timeHint(in.Persona, in.Now),
		Today:       model.DateTag(in.Now),
	}

	var buf bytes.Buffer
	if err := chatSystemPrompt.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to execute chat system prompt template")
	}
	return buf.String(), nil
}

func buildChatPrompt(in Input) string {
	var sb strings.Builder

	history := in.History
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	if len(history) > 0 {
		sb.WriteString("## Conversation so far\n\n")
		for _, m := range history {
			fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## New message from the user\n\n")
	sb.WriteString(in.Message)
	sb.WriteString("\n")

	return sb.String()
}

func chatSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "PersonaChatTurn",
		Description: "The persona's in-character reply plus long-term memory maintenance",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"response": {
				Type:        gollem.TypeString,
				Description: "The in-character reply to the user",
				Required:    true,
			},
			"new_memories": {
				Type:        gollem.TypeArray,
				Description: "New or extended facts about the user, each a dated self-contained sentence; empty when nothing changed",
				Items: &gollem.Parameter{
					Type: gollem.TypeString,
				},
			},
			"removed_memories": {
				Type:        gollem.TypeArray,
				Description: "Existing memory entries superseded by new_memories, copied verbatim; empty when nothing changed",
				Items: &gollem.Parameter{
					Type: gollem.TypeString,
				},
			},
		},
	}
}
