package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/markdave123-py/inventra/internal/core"
	"github.com/markdave123-py/inventra/internal/models"
)

type GeminiLLM struct {
	client    *genai.Client
	modelName string
}

func NewGeminiLLM(ctx context.Context, apiKey, modelName string) (*GeminiLLM, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiLLM{client: cl, modelName: modelName}, nil
}

func (g *GeminiLLM) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Chat replays history into a chat session and sends its last message. System messages become
// the model's system instruction.
func (g *GeminiLLM) Chat(ctx context.Context, history []models.Message, opts core.ChatOptions) (models.Message, error) {
	system, turns := splitGeminiHistory(history)
	if len(turns) == 0 || turns[len(turns)-1].Role != "user" {
		return models.Message{}, fmt.Errorf("gemini chat: history must end with a user message")
	}

	m := g.client.GenerativeModel(g.modelName)
	if system != "" {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}
	if opts.Temperature != nil {
		m.SetTemperature(*opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(opts.MaxTokens))
	}

	cs := m.StartChat()
	cs.History = turns[:len(turns)-1]
	last := turns[len(turns)-1]

	resp, err := cs.SendMessage(ctx, last.Parts...)
	if err != nil {
		return models.Message{}, fmt.Errorf("gemini chat: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return models.Message{Role: models.RoleAssistant}, nil
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return models.Message{Role: models.RoleAssistant, Content: b.String()}, nil
}

// splitGeminiHistory maps roles onto Gemini's "user"/"model" pair and joins system messages.
func splitGeminiHistory(history []models.Message) (string, []*genai.Content) {
	var (
		system []string
		turns  []*genai.Content
	)
	for _, msg := range history {
		switch msg.Role {
		case models.RoleSystem:
			system = append(system, msg.Content)
			continue
		case models.RoleAssistant:
			turns = append(turns, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(msg.Content)}})
		default:
			turns = append(turns, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(msg.Content)}})
		}
	}
	return strings.Join(system, "\n\n"), turns
}

var _ core.ChatProvider = (*GeminiLLM)(nil)
