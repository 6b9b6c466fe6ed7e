package planner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/FACorreiaa/travel-assistant/internal/api/catalog"
	"github.com/FACorreiaa/travel-assistant/internal/console"
	"github.com/FACorreiaa/travel-assistant/internal/types"
)

type State int

const (
	SelectCity State = iota
	SelectActivity
	SelectBudget
	ConfirmRetry
	ChooseRetry
	ShowResults
	Aborted
)

func (s State) String() string {
	switch s {
	case SelectCity:
		return "select_city"
	case SelectActivity:
		return "select_activity"
	case SelectBudget:
		return "select_budget"
	case ConfirmRetry:
		return "confirm_retry"
	case ChooseRetry:
		return "choose_retry"
	case ShowResults:
		return "show_results"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether the planner stops in this state.
func (s State) Terminal() bool {
	return s == ShowResults || s == Aborted
}

// Prompt is the question asked to the user in a state.
func Prompt(s State) string {
	switch s {
	case SelectCity:
		return "Which city are you going to? "
	case SelectActivity:
		return "What type of activity are you interested in? (e.g., hotel, restaurant, nature, park, history) "
	case SelectBudget:
		return "What's your budget? (low, medium, high) "
	case ConfirmRetry:
		return "Would you like to try a different activity or budget? (yes/no) "
	case ChooseRetry:
		return "Type 'activity' to change activity or 'budget' to change budget: "
	default:
		return ""
	}
}

// Session carries the choices made so far. Cities and the vocabulary are
// fetched the first time a state needs them.
type Session struct {
	State       State
	City        string
	Activity    string
	Budget      types.BudgetTier
	Suggestions []types.PointOfInterest

	cities     []string
	vocabulary *types.ActivityVocabulary
}

func NewSession() *Session {
	return &Session{State: SelectCity}
}

type Planner struct {
	catalog catalog.Service
	logger  *slog.Logger
}

func New(catalogService catalog.Service, logger *slog.Logger) *Planner {
	return &Planner{
		catalog: catalogService,
		logger:  logger,
	}
}

// Step consumes one line of input for the session's current state, writes
// the resulting messages to out and moves the session to its next state.
// A remote failure leaves the session untouched so the step can be replayed.
func (p *Planner) Step(ctx context.Context, s *Session, input string, out io.Writer) error {
	input = strings.ToLower(strings.TrimSpace(input))

	switch s.State {
	case SelectCity:
		return p.selectCity(ctx, s, input, out)
	case SelectActivity:
		return p.selectActivity(ctx, s, input, out)
	case SelectBudget:
		return p.selectBudget(ctx, s, input, out)
	case ConfirmRetry:
		if yes, _ := console.ParseYesNo(input); yes {
			s.State = ChooseRetry
			return nil
		}
		fmt.Fprintln(out, "Okay, exiting planner.")
		s.State = Aborted
		return nil
	case ChooseRetry:
		switch input {
		case "activity":
			s.State = SelectActivity
		case "budget":
			s.State = SelectBudget
		default:
			fmt.Fprintln(out, "Invalid choice, exiting planner.")
			s.State = Aborted
		}
		return nil
	default:
		return fmt.Errorf("planner: no transition out of %s", s.State)
	}
}

func (p *Planner) selectCity(ctx context.Context, s *Session, city string, out io.Writer) error {
	if s.cities == nil {
		cities, err := p.catalog.ListCities(ctx)
		if err != nil {
			return err
		}
		s.cities = cities
	}

	if !slices.Contains(s.cities, city) {
		fmt.Fprintf(out, "Sorry, we currently don't have data for '%s'. Available cities are:\n", title(city))
		for _, c := range s.cities {
			fmt.Fprintf(out, "- %s\n", title(c))
		}
		return nil
	}

	s.City = city
	s.vocabulary = nil
	s.State = SelectActivity
	return nil
}

func (p *Planner) selectActivity(ctx context.Context, s *Session, input string, out io.Writer) error {
	if s.vocabulary == nil {
		vocabulary, err := p.catalog.ListActivityVocabulary(ctx, s.City)
		if err != nil {
			return err
		}
		s.vocabulary = &vocabulary
	}

	allowed := s.vocabulary.Allowed()
	activity := catalog.NormalizeActivity(input)
	if _, ok := allowed[activity]; !ok {
		fmt.Fprintf(out, "Sorry, no '%s' activities found in %s. Please choose from:\n", activity, title(s.City))
		for _, a := range types.SortedKeys(allowed) {
			fmt.Fprintf(out, "- %s\n", a)
		}
		// Phrase matches are only a hint; the user still has to type the word.
		if hint, found := catalog.NewActivityMatcher(allowed).Resolve(input); found {
			p.logger.DebugContext(ctx, "Activity hinted from phrase",
				slog.String("phrase", input),
				slog.String("activity", hint))
			fmt.Fprintf(out, "Did you mean '%s'?\n", hint)
		}
		return nil
	}

	s.Activity = activity
	s.State = SelectBudget
	return nil
}

func (p *Planner) selectBudget(ctx context.Context, s *Session, input string, out io.Writer) error {
	budget, err := types.ParseBudgetTier(input)
	if err != nil {
		fmt.Fprintln(out, "Please choose low, medium or high.")
		return nil
	}

	suggestions, err := p.catalog.FindSuggestions(ctx, s.City, s.Activity, budget)
	if err != nil {
		return err
	}
	s.Budget = budget

	if len(suggestions) == 0 {
		fmt.Fprintf(out, "Sorry, no results found for %s in %s within your budget.\n", s.Activity, title(s.City))
		s.State = ConfirmRetry
		return nil
	}

	s.Suggestions = suggestions
	printSuggestions(out, s)
	s.State = ShowResults
	return nil
}

func printSuggestions(out io.Writer, s *Session) {
	fmt.Fprintf(out, "\nTop suggestions for %s in %s (budget: %s):\n\n", s.Activity, title(s.City), s.Budget)
	for i, poi := range s.Suggestions {
		fmt.Fprintf(out, "%d. %s — Price: %s %s\n", i+1, poi.Description(), poi.PriceLabel(), poi.CurrencyLabel())
	}
}

// Run drives a session from the prompter until it reaches a terminal state.
// A declined retry after a remote failure ends the planner without error.
func (p *Planner) Run(ctx context.Context, prompter *console.Prompter) error {
	ctx, span := otel.Tracer("Planner").Start(ctx, "Run")
	defer span.End()

	s := NewSession()
	for !s.State.Terminal() {
		input, err := prompter.Ask(Prompt(s.State))
		if err != nil {
			return err
		}

		from := s.State
		_, err = console.WithRetry(ctx, prompter, p.logger, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, p.Step(ctx, s, input, prompter.Out())
		})
		if errors.Is(err, types.ErrAborted) {
			prompter.Println("Okay, exiting planner.")
			s.State = Aborted
			break
		}
		if err != nil {
			span.RecordError(err)
			return err
		}
		p.logger.DebugContext(ctx, "Planner transition",
			slog.String("from", from.String()),
			slog.String("to", s.State.String()))
	}

	span.AddEvent("planner finished", trace.WithAttributes(
		attribute.String("state", s.State.String()),
		attribute.Int("suggestions", len(s.Suggestions)),
	))
	return nil
}

func title(s string) string {
	return cases.Title(language.English).String(s)
}
