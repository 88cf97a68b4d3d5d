package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// defaultMaxCycles caps evaluator-driven cycles in the outer loop. Without
// it a noisy evaluator could bounce between SEARCH and REDRAFT forever; on
// exhaustion the run returns its best-effort draft with BudgetExhausted set.
const defaultMaxCycles = 5

// Options configures one workflow instance.
type Options struct {
	// Persona selects the drafting instruction set.
	Persona Persona
	// MaxCycles bounds evaluator invocations per run; <=0 selects the
	// default of 5.
	MaxCycles int
	// ResearchAttempts bounds web searches per research sub-loop; <=0
	// selects the default of 3.
	ResearchAttempts int
}

// The stage seams the controller sequences. Production wiring uses the
// concrete stages from this package; tests substitute scripted ones.
type researchStage interface {
	Research(ctx context.Context, state *WorkflowState, need string) error
}

type draftStage interface {
	Draft(ctx context.Context, state *WorkflowState) error
}

type evaluateStage interface {
	Evaluate(ctx context.Context, state *WorkflowState) (Verdict, error)
}

// Workflow is the top-level state machine for one contact:
// RESEARCH -> {DRAFT | EVALUATE}, EVALUATE -> {RESEARCH | DRAFT | STOP},
// DRAFT -> EVALUATE. The admission gate runs once before the machine starts.
type Workflow struct {
	researcher researchStage
	drafter    draftStage
	evaluator  evaluateStage
	maxCycles  int
	log        *zap.Logger
}

// New wires a workflow around one shared text-generation capability and one
// web-search capability.
func New(gen TextGenerator, searcher WebSearcher, opts Options, log *zap.Logger) *Workflow {
	if log == nil {
		log = zap.NewNop()
	}
	maxCycles := opts.MaxCycles
	if maxCycles <= 0 {
		maxCycles = defaultMaxCycles
	}
	return &Workflow{
		researcher: NewResearcher(searcher, gen, opts.ResearchAttempts, log),
		drafter:    NewDrafter(gen, opts.Persona, log),
		evaluator:  NewEvaluator(gen, log),
		maxCycles:  maxCycles,
		log:        log,
	}
}

// Run executes the full workflow for one contact. The returned state holds
// the final draft and iteration counters; on error it holds whatever was
// built before the failure. Contacts failing the admission gate never reach
// any external service.
func (w *Workflow) Run(ctx context.Context, contact Contact, sender *Sender) (*WorkflowState, error) {
	if err := Admit(contact); err != nil {
		return nil, err
	}
	state := NewState(contact, sender)
	need := fmt.Sprintf("background on %s's work at %s relevant to %s",
		contact.FullName, contact.CompanyName, sender.CareerInterest)

	if err := w.researcher.Research(ctx, state, need); err != nil {
		return state, err
	}

	for cycle := 0; ; cycle++ {
		if cycle >= w.maxCycles {
			state.BudgetExhausted = true
			w.log.Warn("workflow cycle budget exhausted, returning best-effort draft",
				zap.String("contact", contact.Identity()),
				zap.Int("draft_iterations", state.DraftIteration),
				zap.Int("cycles", cycle))
			return state, nil
		}

		// The evaluator never sees an empty draft: straight out of
		// research, or after a SEARCH verdict on a run that has not
		// drafted yet, draft first.
		if state.Draft == "" {
			if err := w.drafter.Draft(ctx, state); err != nil {
				return state, err
			}
		}

		verdict, err := w.evaluator.Evaluate(ctx, state)
		if err != nil {
			return state, err
		}

		switch verdict.Decision {
		case DecisionAccept:
			w.log.Info("draft accepted",
				zap.String("contact", contact.Identity()),
				zap.Int("draft_iterations", state.DraftIteration))
			return state, nil
		case DecisionRevise:
			if err := w.drafter.Draft(ctx, state); err != nil {
				return state, err
			}
		case DecisionResearch:
			researchNeed := verdict.Details
			if researchNeed == "" {
				researchNeed = need
			}
			if err := w.researcher.Research(ctx, state, researchNeed); err != nil {
				return state, err
			}
		}
	}
}
