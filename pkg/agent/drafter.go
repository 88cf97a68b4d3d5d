package agent

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// Drafter produces one email draft per call from the contact, the sender's
// condensed background, and the accumulated research summary.
type Drafter struct {
	gen     TextGenerator
	persona Persona
	log     *zap.Logger
}

// NewDrafter wires the drafting stage. The persona is fixed for the
// lifetime of the drafter.
func NewDrafter(gen TextGenerator, persona Persona, log *zap.Logger) *Drafter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Drafter{gen: gen, persona: persona, log: log}
}

// Draft writes a new draft into the state and increments DraftIteration.
// A failed or empty generation surfaces as *GenerationError; an empty draft
// is indistinguishable from "nothing to revise" downstream, so it is never
// returned silently.
func (d *Drafter) Draft(ctx context.Context, state *WorkflowState) error {
	senderContent, err := state.Sender.RelevantContent(ctx, d.gen)
	if err != nil {
		return err
	}

	critique := ""
	if v := state.LastEvaluation; v != nil && v.Decision == DecisionRevise {
		critique = v.Details
		if critique == "" {
			critique = v.Reason
		}
	}

	out, err := d.gen.Generate(ctx, draftPrompt(d.persona, state.Contact, senderContent, state.ResearchSummary, critique))
	if err != nil {
		return &GenerationError{Stage: "draft", Err: err}
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return &GenerationError{Stage: "draft", Err: errors.New("empty draft returned")}
	}

	state.Draft = out
	state.DraftIteration++
	state.record("draft", "")
	d.log.Debug("draft produced",
		zap.String("contact", state.Contact.Identity()),
		zap.Int("iteration", state.DraftIteration))
	return nil
}
