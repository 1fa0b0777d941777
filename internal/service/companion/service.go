// Package companion implements the AI wellbeing companion behind
// POST /chatbot/chat. The language model is a remote capability reached
// through an eino chat chain; conversation state lives in the chat store.
package companion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/Shrey-Sawant/Sonder/internal/analysis/risk"
	"github.com/Shrey-Sawant/Sonder/internal/config"
	"github.com/Shrey-Sawant/Sonder/internal/model/chat"
	"github.com/Shrey-Sawant/Sonder/internal/model/user"
	"github.com/Shrey-Sawant/Sonder/internal/store"
)

var ErrEmptyMessage = errors.New("message text is required")

const historyLimit = 10

const systemPrompt = `You are Sonder AI, a caring mental health companion for students.

Your style:
- Talk like a supportive friend, not a therapist
- Use simple, warm language
- Keep responses short (2-3 paragraphs max)
- Ask gentle questions to understand better

Your approach:
- Listen without judgment
- Offer small, practical coping ideas when appropriate
- Remind them they're not alone

Important boundaries:
- If they mention self-harm, suicide, or severe crisis, strongly encourage them to talk to a counselor or call a helpline immediately
- Don't diagnose mental health conditions
- Don't give medical advice

Your goal is to make them feel heard, understood, and a little less alone.`

const crisisFooter = "\n\nIt sounds like you are carrying something really heavy right now. " +
	"Please reach out to a counsellor on Sonder or a local crisis helpline — you deserve support from a real person, right away."

// Service runs the companion conversation loop.
type Service struct {
	chats store.ChatStore
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the chat chain against the configured model.
func NewService(ctx context.Context, chats store.ChatStore, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{chats: chats, chain: runnable}, nil
}

// Chat persists the student's message into their AI session, generates a
// reply from the recent history and persists it too.
func (s *Service) Chat(ctx context.Context, student user.User, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}

	session, _, err := s.chats.FindOrCreateSession(ctx, chat.Session{
		StudentID: student.ID,
		ChatType:  chat.TypeAI,
		Status:    chat.StatusActive,
	})
	if err != nil {
		return "", fmt.Errorf("resolve companion session: %w", err)
	}

	if _, err := s.chats.SaveMessage(ctx, chat.Message{
		SessionID:  session.ID,
		SenderRole: chat.SenderStudent,
		Message:    text,
	}); err != nil {
		return "", fmt.Errorf("save student message: %w", err)
	}

	messages, err := s.chats.Messages(ctx, session.ID)
	if err != nil {
		return "", fmt.Errorf("load companion history: %w", err)
	}

	assessment := risk.Analyze(text)
	if assessment.Level == risk.Crisis {
		log.Printf("[companion] crisis signals in session=%d student=%d", session.ID, student.ID)
	}

	response, err := s.chain.Invoke(ctx, map[string]any{
		"system":  systemPrompt,
		"history": buildHistory(messages),
		"query":   text,
	})
	if err != nil {
		return "", fmt.Errorf("failed to run companion chain: %w", err)
	}

	reply := response.Content
	if assessment.Level == risk.Crisis {
		reply += crisisFooter
	}

	if _, err := s.chats.SaveMessage(ctx, chat.Message{
		SessionID:  session.ID,
		SenderRole: chat.SenderAI,
		Message:    reply,
	}); err != nil {
		return "", fmt.Errorf("save companion reply: %w", err)
	}

	log.Printf("[companion] replied session=%d length=%d", session.ID, len(reply))
	return reply, nil
}

// buildHistory maps the most recent transcript entries into model messages.
// The just-saved student turn is excluded; it travels as the query.
func buildHistory(messages []chat.Message) []*schema.Message {
	if len(messages) > 0 {
		messages = messages[:len(messages)-1]
	}

	startIdx := 0
	if len(messages) > historyLimit {
		startIdx = len(messages) - historyLimit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.SenderRole {
		case chat.SenderStudent:
			history = append(history, schema.UserMessage(msg.Message))
		case chat.SenderAI:
			history = append(history, schema.AssistantMessage(msg.Message, nil))
		}
	}
	return history
}
