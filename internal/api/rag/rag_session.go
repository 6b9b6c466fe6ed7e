package rag

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/FACorreiaa/travel-assistant/internal/console"
	"github.com/FACorreiaa/travel-assistant/internal/types"
)

// Asker answers one question.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Session is the interactive question loop over a built chain.
type Session struct {
	asker  Asker
	logger *slog.Logger
}

func NewSession(asker Asker, logger *slog.Logger) *Session {
	return &Session{asker: asker, logger: logger}
}

// IsExit reports whether the input ends the Q&A session.
func IsExit(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "quit":
		return true
	}
	return false
}

// Run asks questions until the user types exit or quit, declines to continue
// or declines a retry after a failed answer.
func (s *Session) Run(ctx context.Context, prompter *console.Prompter) error {
	prompter.Println("\nWelcome to the Travel Assistant Q&A! Type 'exit' to return to main menu.")
	for {
		question, err := prompter.Ask("\nYour question: ")
		if err != nil {
			return err
		}
		if IsExit(question) {
			prompter.Printf("Returning to main menu...\n\n")
			return nil
		}
		if question == "" {
			continue
		}

		answer, err := console.WithRetry(ctx, prompter, s.logger, func(ctx context.Context) (string, error) {
			return s.asker.Ask(ctx, question)
		})
		if errors.Is(err, types.ErrAborted) {
			prompter.Printf("Returning to main menu...\n\n")
			return nil
		}
		if err != nil {
			return err
		}
		prompter.Printf("\nAnswer: %s\n", answer)

		again, err := prompter.Confirm("\nDo you want to ask another question? (yes/no): ")
		if err != nil {
			return err
		}
		if !again {
			prompter.Printf("Returning to main menu...\n\n")
			return nil
		}
	}
}
