package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/FACorreiaa/travel-assistant/internal/api/rag"
	"github.com/FACorreiaa/travel-assistant/internal/console"
	"github.com/FACorreiaa/travel-assistant/internal/types"
)

// Runner is an interactive mode reachable from the main menu.
type Runner interface {
	Run(ctx context.Context, prompter *console.Prompter) error
}

// Menu dispatches between the planner and the Q&A session.
type Menu struct {
	plan   Runner
	ask    Runner
	logger *slog.Logger
}

func NewMenu(plan, ask Runner, logger *slog.Logger) *Menu {
	return &Menu{plan: plan, ask: ask, logger: logger}
}

func (m *Menu) Run(ctx context.Context, prompter *console.Prompter) error {
	prompter.Println("Welcome! You can plan your trip or ask travel questions.")
	for {
		choice, err := prompter.AskLower("Type 'plan' to get itinerary suggestions, 'ask' to ask a question, or 'exit' to quit: ")
		if err != nil {
			return goodbye(prompter, err)
		}

		switch choice {
		case "plan":
			err = m.plan.Run(ctx, prompter)
		case "ask":
			err = m.ask.Run(ctx, prompter)
		case "exit":
			prompter.Println("Goodbye!")
			return nil
		default:
			prompter.Println("Invalid choice. Please enter 'plan', 'ask', or 'exit'.")
			continue
		}
		if err != nil {
			return goodbye(prompter, err)
		}
		m.logger.DebugContext(ctx, "Back at main menu", slog.String("from", choice))
	}
}

func goodbye(prompter *console.Prompter, err error) error {
	if errors.Is(err, types.ErrInputClosed) {
		prompter.Println("Goodbye!")
		return nil
	}
	return err
}

// ChainFunc builds a fresh Q&A chain.
type ChainFunc func(ctx context.Context) (rag.Asker, error)

// AskRunner builds the retrieval chain, retrying on request, then runs a
// Q&A session over it.
type AskRunner struct {
	build  ChainFunc
	logger *slog.Logger
}

func NewAskRunner(build ChainFunc, logger *slog.Logger) *AskRunner {
	return &AskRunner{build: build, logger: logger}
}

func (a *AskRunner) Run(ctx context.Context, prompter *console.Prompter) error {
	asker, err := console.WithRetry(ctx, prompter, a.logger, func(ctx context.Context) (rag.Asker, error) {
		return a.build(ctx)
	})
	if errors.Is(err, types.ErrAborted) {
		prompter.Printf("Returning to main menu...\n\n")
		return nil
	}
	if err != nil {
		return err
	}
	return rag.NewSession(asker, a.logger).Run(ctx, prompter)
}
