// Package agent implements the outreach-email drafting workflow: a bounded
// state machine that researches a contact on the web, drafts an email,
// critiques the draft, and iterates until the draft is accepted or the
// iteration budgets run out.
package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Contact is the outreach target. Field layout mirrors the contact-sheet
// columns the pipeline reads and writes.
type Contact struct {
	Match         string
	FullName      string
	JobTitle      string
	Location      string
	CompanyDomain string
	CompanyName   string
	LinkedIn      string
	WorkEmail     string

	// DraftEmail is a previously generated draft, if any. Contacts that
	// already carry one are rejected by the admission gate.
	DraftEmail string
}

// Identity returns a short human-readable identifier used in logs and
// failure records.
func (c Contact) Identity() string {
	name := strings.TrimSpace(c.FullName)
	email := strings.TrimSpace(c.WorkEmail)
	switch {
	case name != "" && email != "":
		return fmt.Sprintf("%s <%s>", name, email)
	case email != "":
		return email
	default:
		return name
	}
}

// Sender is the person on whose behalf emails are drafted.
type Sender struct {
	Name               string
	Resume             string
	CareerInterest     string
	KeyAccomplishments []string

	mu              sync.Mutex
	relevantContent string
	contentReady    bool
}

// NewSender builds a sender profile.
func NewSender(name, resume, careerInterest string, accomplishments []string) *Sender {
	return &Sender{
		Name:               name,
		Resume:             resume,
		CareerInterest:     careerInterest,
		KeyAccomplishments: accomplishments,
	}
}

// RelevantContent condenses the sender's resume, interests and
// accomplishments into a short summary suitable for prompts. The summary is
// computed through the text generator at most once; concurrent callers share
// the cached value. A failed computation is not cached, so a later call may
// succeed.
func (s *Sender) RelevantContent(ctx context.Context, gen TextGenerator) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.contentReady {
		return s.relevantContent, nil
	}
	out, err := gen.Generate(ctx, relevantContentPrompt(s))
	if err != nil {
		return "", &GenerationError{Stage: "sender-content", Err: err}
	}
	s.relevantContent = strings.TrimSpace(out)
	s.contentReady = true
	return s.relevantContent, nil
}

// Decision is the Evaluator's classification of a draft. The wire tokens are
// the ones the evaluation prompt asks for.
type Decision string

const (
	// DecisionAccept ends the workflow; the draft is ready to send.
	DecisionAccept Decision = "END"
	// DecisionRevise sends the draft back to the Drafter with critiques.
	DecisionRevise Decision = "REDRAFT"
	// DecisionResearch re-enters the research sub-loop to fill info gaps.
	DecisionResearch Decision = "SEARCH"
)

// Verdict is the Evaluator's structured output.
type Verdict struct {
	Decision Decision
	// Reason is a one-line explanation of the decision.
	Reason string
	// Details carries critique points for REDRAFT, information gaps for
	// SEARCH, or confirmation text for END.
	Details string
}

// StageEvent is one entry in the workflow's audit trail. The history is
// append-only and never consulted for control decisions.
type StageEvent struct {
	Stage string
	At    time.Time
	Note  string
}

// WorkflowState is the mutable record threaded through one contact's run.
// It is owned by exactly one run and never shared across contacts.
type WorkflowState struct {
	Contact Contact
	Sender  *Sender

	// Draft is the current email body. Only the Drafter writes it.
	Draft string
	// DraftIteration counts Drafter invocations; never decreases.
	DraftIteration int
	// SearchIteration counts Researcher invocations within the most recent
	// research sub-loop. Reset when a sub-loop starts, monotonic inside it.
	SearchIteration int
	// ResearchSummary accumulates what is known about the contact.
	ResearchSummary string
	// LastEvaluation is the most recent verdict, nil before the first one.
	LastEvaluation *Verdict
	// BudgetExhausted is set when the run stopped on the global cycle cap
	// rather than an ACCEPT verdict. The draft is still usable best-effort
	// output.
	BudgetExhausted bool

	History []StageEvent
}

// NewState creates the state for one contact's run.
func NewState(contact Contact, sender *Sender) *WorkflowState {
	return &WorkflowState{Contact: contact, Sender: sender}
}

func (s *WorkflowState) record(stage, note string) {
	s.History = append(s.History, StageEvent{Stage: stage, At: time.Now(), Note: note})
}
