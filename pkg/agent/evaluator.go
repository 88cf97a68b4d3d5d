package agent

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Evaluator classifies the current draft into accept, revise, or
// needs-more-research, with a rationale.
type Evaluator struct {
	gen TextGenerator
	log *zap.Logger
}

// NewEvaluator wires the evaluation stage.
func NewEvaluator(gen TextGenerator, log *zap.Logger) *Evaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{gen: gen, log: log}
}

// Evaluate runs the evaluator over the current draft and records the
// verdict in state.LastEvaluation. The draft must be non-empty; the
// workflow controller guarantees that.
func (e *Evaluator) Evaluate(ctx context.Context, state *WorkflowState) (Verdict, error) {
	senderContent, err := state.Sender.RelevantContent(ctx, e.gen)
	if err != nil {
		return Verdict{}, err
	}

	out, err := e.gen.Generate(ctx, evaluatePrompt(state.Contact, senderContent, state.ResearchSummary, state.Draft))
	if err != nil {
		return Verdict{}, &GenerationError{Stage: "evaluate", Err: err}
	}

	v, err := ParseVerdict(out)
	if err != nil {
		return Verdict{}, err
	}
	state.LastEvaluation = &v
	state.record("evaluate", string(v.Decision))
	e.log.Debug("draft evaluated",
		zap.String("contact", state.Contact.Identity()),
		zap.String("decision", string(v.Decision)),
		zap.String("reason", v.Reason))
	return v, nil
}

// ParseVerdict parses the COMMAND/REASON/DETAILS response format into a
// Verdict. REASON and DETAILS tolerate being absent; the decision token does
// not. An unrecognized or missing command yields *MalformedVerdictError —
// never a silent default, which would hide evaluator malfunction.
func ParseVerdict(out string) (Verdict, error) {
	var v Verdict
	var details []string
	inDetails := false

	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "COMMAND:"):
			inDetails = false
			token := strings.TrimSpace(strings.TrimPrefix(trimmed, "COMMAND:"))
			switch Decision(strings.ToUpper(token)) {
			case DecisionAccept, DecisionRevise, DecisionResearch:
				v.Decision = Decision(strings.ToUpper(token))
			default:
				return Verdict{}, &MalformedVerdictError{Output: out}
			}
		case strings.HasPrefix(trimmed, "REASON:"):
			inDetails = false
			v.Reason = strings.TrimSpace(strings.TrimPrefix(trimmed, "REASON:"))
		case strings.HasPrefix(trimmed, "DETAILS:"):
			inDetails = true
			if rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "DETAILS:")); rest != "" {
				details = append(details, rest)
			}
		case inDetails && trimmed != "":
			details = append(details, trimmed)
		}
	}

	if v.Decision == "" {
		return Verdict{}, &MalformedVerdictError{Output: out}
	}
	v.Details = strings.Join(details, "\n")
	return v, nil
}
