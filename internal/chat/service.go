package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gamesage/gamesage-backend/internal/games"
	pkgerrors "github.com/gamesage/gamesage-backend/pkg/errors"
	"github.com/gamesage/gamesage-backend/pkg/logger"
	"github.com/gamesage/gamesage-backend/pkg/openai"
)

const systemPrompt = `You are GameSage, the shopping assistant for a video game storefront.
Answer questions about games, genres, platforms, and prices. When a shopper
asks about specific games or what to play, call the search_games tool to look
up the live catalog and base your answer on its results. Mention prices in
the store currency and point out active sales. Keep answers short and
friendly. If the catalog has no match, say so instead of inventing titles.`

const (
	searchToolName  = "search_games"
	maxToolRounds   = 3
	maxInputTurns   = 32
	toolResultLimit = 5
)

var searchToolSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "query": {
      "type": "string",
      "description": "Keywords to match against game titles, descriptions, and tags"
    },
    "limit": {
      "type": "integer",
      "description": "Maximum number of results, defaults to 5"
    }
  },
  "required": ["query"]
}`)

type gameSearcher interface {
	SearchGames(ctx context.Context, query string, limit int) ([]games.GameSummary, error)
}

type llmClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatRequest) (*openai.ChatResponse, error)
	StreamChatCompletion(ctx context.Context, req openai.ChatRequest, onDelta func(delta string) error) error
}

// ServiceParams groups dependencies for the chat service.
type ServiceParams struct {
	LLM      llmClient
	GamesSvc gameSearcher
	Logger   *logger.Logger
}

// Service answers storefront questions, grounding replies in catalog search.
type Service interface {
	StreamReply(ctx context.Context, input ChatInput, onDelta func(delta string) error) error
}

type service struct {
	llm      llmClient
	gamesSvc gameSearcher
	logg     *logger.Logger
}

// NewService builds the chat service.
func NewService(params ServiceParams) (Service, error) {
	if params.LLM == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "llm client is required")
	}
	if params.GamesSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "games service is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		llm:      params.LLM,
		gamesSvc: params.GamesSvc,
		logg:     params.Logger,
	}, nil
}

// StreamReply runs the tool loop to completion, then streams the final
// assistant answer through onDelta. The caller's context cancels both the
// tool calls and the stream.
func (s *service) StreamReply(ctx context.Context, input ChatInput, onDelta func(delta string) error) error {
	messages, err := buildMessages(input)
	if err != nil {
		return err
	}

	tools := []openai.Tool{{
		Type: "function",
		Function: openai.FunctionDefinition{
			Name:        searchToolName,
			Description: "Search the game catalog by keywords. Returns matching games with prices and sale status.",
			Parameters:  searchToolSchema,
		},
	}}

	for round := 0; round < maxToolRounds; round++ {
		resp, err := s.llm.CreateChatCompletion(ctx, openai.ChatRequest{
			Messages: messages,
			Tools:    tools,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "chat completion")
		}

		choice := resp.Choices[0]
		if len(choice.Message.ToolCalls) == 0 {
			// Model answered directly; replay the answer as a stream so the
			// client sees one consistent transport either way.
			break
		}

		messages = append(messages, choice.Message)
		for _, call := range choice.Message.ToolCalls {
			result := s.executeTool(ctx, call)
			messages = append(messages, openai.Message{
				Role:       openai.RoleTool,
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}

	err = s.llm.StreamChatCompletion(ctx, openai.ChatRequest{Messages: messages}, onDelta)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stream chat reply")
	}
	return nil
}

func (s *service) executeTool(ctx context.Context, call openai.ToolCall) string {
	if call.Function.Name != searchToolName {
		return fmt.Sprintf(`{"error": "unknown tool %q"}`, call.Function.Name)
	}

	var args struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		return `{"error": "invalid tool arguments"}`
	}
	if args.Limit <= 0 || args.Limit > toolResultLimit {
		args.Limit = toolResultLimit
	}

	results, err := s.gamesSvc.SearchGames(ctx, args.Query, args.Limit)
	if err != nil {
		s.logg.Error(ctx, "catalog search for chat tool", err)
		return `{"error": "catalog search failed"}`
	}

	payload := make([]map[string]any, 0, len(results))
	for _, game := range results {
		entry := map[string]any{
			"title":  game.Title,
			"slug":   game.Slug,
			"price":  game.Price.String(),
			"rating": game.Rating,
		}
		if game.OnSale && game.SalePrice != nil {
			entry["sale_price"] = game.SalePrice.String()
		}
		payload = append(payload, entry)
	}

	encoded, err := json.Marshal(map[string]any{"results": payload})
	if err != nil {
		return `{"error": "could not encode results"}`
	}
	return string(encoded)
}

func buildMessages(input ChatInput) ([]openai.Message, error) {
	if len(input.Messages) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one message is required")
	}
	if len(input.Messages) > maxInputTurns {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "conversation is too long")
	}

	messages := make([]openai.Message, 0, len(input.Messages)+1)
	messages = append(messages, openai.Message{Role: openai.RoleSystem, Content: systemPrompt})
	for _, msg := range input.Messages {
		role := strings.ToLower(strings.TrimSpace(msg.Role))
		if role != openai.RoleUser && role != openai.RoleAssistant {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "message role must be user or assistant")
		}
		if strings.TrimSpace(msg.Content) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "message content cannot be empty")
		}
		messages = append(messages, openai.Message{Role: role, Content: msg.Content})
	}
	if messages[len(messages)-1].Role != openai.RoleUser {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "conversation must end with a user message")
	}
	return messages, nil
}
