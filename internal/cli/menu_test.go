package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/travel-assistant/internal/api/rag"
	"github.com/FACorreiaa/travel-assistant/internal/console"
)

type scriptedRunner struct {
	calls int
	// lines consumed from the prompter on every run
	prompts []string
	err     error
}

func (r *scriptedRunner) Run(_ context.Context, p *console.Prompter) error {
	r.calls++
	for _, prompt := range r.prompts {
		if _, err := p.Ask(prompt); err != nil {
			return err
		}
	}
	return r.err
}

type staticAsker struct {
	answer string
	calls  int
}

func (a *staticAsker) Ask(context.Context, string) (string, error) {
	a.calls++
	return a.answer, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMenu_Dispatch(t *testing.T) {
	plan := &scriptedRunner{prompts: []string{"city? "}}
	ask := &scriptedRunner{}
	var out bytes.Buffer

	input := "PLAN\nparis\nhelp\nask\nexit\n"
	err := NewMenu(plan, ask, testLogger()).Run(context.Background(), console.NewPrompter(strings.NewReader(input), &out))
	require.NoError(t, err)

	assert.Equal(t, 1, plan.calls)
	assert.Equal(t, 1, ask.calls)
	assert.True(t, strings.HasPrefix(out.String(), "Welcome! You can plan your trip or ask travel questions.\n"))
	assert.Contains(t, out.String(), "Invalid choice. Please enter 'plan', 'ask', or 'exit'.")
	assert.True(t, strings.HasSuffix(out.String(), "Goodbye!\n"))
}

func TestMenu_ClosedInput(t *testing.T) {
	plan := &scriptedRunner{prompts: []string{"city? ", "activity? "}}
	var out bytes.Buffer

	err := NewMenu(plan, &scriptedRunner{}, testLogger()).Run(context.Background(), console.NewPrompter(strings.NewReader("plan\nrome\n"), &out))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out.String(), "Goodbye!\n"))
}

func TestMenu_PropagatesUnexpectedErrors(t *testing.T) {
	boom := errors.New("context canceled")
	plan := &scriptedRunner{err: boom}

	err := NewMenu(plan, &scriptedRunner{}, testLogger()).Run(context.Background(), console.NewPrompter(strings.NewReader("plan\n"), io.Discard))
	assert.ErrorIs(t, err, boom)
}

func TestAskRunner(t *testing.T) {
	t.Run("builds the chain then runs a session", func(t *testing.T) {
		asker := &staticAsker{answer: "Take the 28 tram."}
		builds := 0
		runner := NewAskRunner(func(context.Context) (rag.Asker, error) {
			builds++
			return asker, nil
		}, testLogger())

		var out bytes.Buffer
		err := runner.Run(context.Background(), console.NewPrompter(strings.NewReader("How do I see Alfama?\nno\n"), &out))
		require.NoError(t, err)
		assert.Equal(t, 1, builds)
		assert.Equal(t, 1, asker.calls)
		assert.Contains(t, out.String(), "Answer: Take the 28 tram.")
	})

	t.Run("declined retry after a failed build", func(t *testing.T) {
		runner := NewAskRunner(func(context.Context) (rag.Asker, error) {
			return nil, errors.New("OPENAI_API_KEY is not set")
		}, testLogger())

		var out bytes.Buffer
		err := runner.Run(context.Background(), console.NewPrompter(strings.NewReader("no\n"), &out))
		require.NoError(t, err)
		assert.Contains(t, out.String(), "OPENAI_API_KEY is not set")
		assert.Contains(t, out.String(), "Returning to main menu...")
	})
}
