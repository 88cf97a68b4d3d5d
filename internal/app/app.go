// Package app wires configuration, capabilities, workflow, and I/O into the
// runnable pipeline modes (batch CSV run, single draft, HTTP serve).
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/outreachkit/outreach-agent-pipeline/internal/config"
	"github.com/outreachkit/outreach-agent-pipeline/internal/gemini"
	"github.com/outreachkit/outreach-agent-pipeline/pkg/agent"
	"github.com/outreachkit/outreach-agent-pipeline/pkg/batch"
	"github.com/outreachkit/outreach-agent-pipeline/pkg/contacts"
	"github.com/outreachkit/outreach-agent-pipeline/pkg/redact"
)

// App holds the wired pipeline.
type App struct {
	cfg      config.Config
	log      *zap.Logger
	workflow *agent.Workflow
}

// New builds the app: one Gemini client shared by all stages as both the
// text-generation and web-search capability.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	persona, err := agent.ParsePersona(cfg.Workflow.Persona)
	if err != nil {
		return nil, err
	}
	client, err := gemini.New(ctx, gemini.Config{
		APIKey:      cfg.Gemini.APIKey,
		Model:       cfg.Gemini.Model,
		SearchModel: cfg.Gemini.SearchModel,
		BaseURL:     cfg.Gemini.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	wf := agent.New(client, client, agent.Options{
		Persona:          persona,
		MaxCycles:        cfg.Workflow.MaxCycles,
		ResearchAttempts: cfg.Workflow.ResearchAttempts,
	}, log)
	return &App{cfg: cfg, log: log, workflow: wf}, nil
}

// Draft runs the workflow for a single contact. Used by the draft command
// and the HTTP endpoint.
func (a *App) Draft(ctx context.Context, contact agent.Contact, sender *agent.Sender) (*agent.WorkflowState, error) {
	return a.workflow.Run(ctx, contact, sender)
}

// RunBatch runs the workflow over all contacts in batches, stores every
// outcome through the sink once at the end, and returns the aggregate
// summary plus captured per-contact failures. A sink failure is returned
// but does not invalidate completed runs.
func (a *App) RunBatch(
	ctx context.Context,
	all []agent.Contact,
	sender *agent.Sender,
	sink batch.Sink[contacts.Outcome],
) (batch.Summary, []batch.Failure, error) {
	runID := uuid.NewString()
	log := a.log.With(zap.String("run", runID))
	start := time.Now()

	summary := batch.Summary{Submitted: len(all)}
	var outcomes []contacts.Outcome
	var failures []batch.Failure

	// Admission gate: cheap synchronous filter before any network call.
	var admitted []agent.Contact
	for _, c := range all {
		if err := agent.Admit(c); err != nil {
			summary.SkippedInvalid++
			outcomes = append(outcomes, skippedOutcome(c, err))
			log.Debug("contact skipped", zap.String("contact", c.Identity()), zap.Error(err))
			continue
		}
		admitted = append(admitted, c)
	}
	log.Info("batch run start",
		zap.Int("submitted", summary.Submitted),
		zap.Int("admitted", len(admitted)),
		zap.Int("skipped_invalid", summary.SkippedInvalid),
		zap.Int("batch_size", a.cfg.Pipeline.BatchSize))

	results, err := batch.Run(ctx, admitted,
		func(runCtx context.Context, c agent.Contact) (*agent.WorkflowState, error) {
			return a.workflow.Run(runCtx, c, sender)
		},
		batch.Options{
			BatchSize:      a.cfg.Pipeline.BatchSize,
			MaxRetries:     a.cfg.Pipeline.MaxRetries,
			RequestTimeout: a.cfg.Pipeline.RequestTimeout.Std(),
			RateLimitRPS:   a.cfg.Pipeline.RateLimitRPS,
			OnBatch: func(p batch.Progress) {
				log.Info("batch complete",
					zap.Int("batch", p.Batch),
					zap.String("progress", p.String()))
			},
		})
	if err != nil {
		return summary, failures, err
	}

	for _, res := range results {
		if res.Err != nil {
			summary.Failed++
			failures = append(failures, batch.Failure{
				ID:      res.Input.Identity(),
				Kind:    errorKind(res.Err),
				Message: redact.Secrets(res.Err.Error()),
			})
			outcomes = append(outcomes, failedOutcome(res.Input, res.Err))
			continue
		}
		summary.Succeeded++
		outcomes = append(outcomes, successOutcome(res.Output))
	}

	log.Info("batch run complete",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped_invalid", summary.SkippedInvalid),
		zap.Duration("duration", time.Since(start).Round(time.Millisecond)))

	if sink != nil {
		if err := sink.Store(ctx, outcomes); err != nil {
			log.Error("persistence sink failed", zap.Error(err))
			return summary, failures, fmt.Errorf("persist outcomes: %w", err)
		}
	}
	return summary, failures, nil
}

// RunLocal reads a local contact CSV, runs the batch pipeline, and appends
// outcomes to a local CSV.
func (a *App) RunLocal(ctx context.Context, inputPath, outputPath, senderPath string) (batch.Summary, error) {
	inF, err := os.Open(inputPath)
	if err != nil {
		return batch.Summary{}, err
	}
	defer func() {
		_ = inF.Close()
	}()

	all, err := contacts.ReadContacts(inF)
	if err != nil {
		return batch.Summary{}, err
	}
	sender, err := config.LoadSender(senderPath)
	if err != nil {
		return batch.Summary{}, err
	}

	summary, _, err := a.RunBatch(ctx, all, sender, &contacts.CSVSink{Path: outputPath})
	return summary, err
}

func skippedOutcome(c agent.Contact, err error) contacts.Outcome {
	return contacts.Outcome{
		FullName:      c.FullName,
		CompanyName:   c.CompanyName,
		CompanyDomain: c.CompanyDomain,
		WorkEmail:     c.WorkEmail,
		DraftEmail:    c.DraftEmail,
		Status:        "skipped",
		Error:         err.Error(),
	}
}

func failedOutcome(c agent.Contact, err error) contacts.Outcome {
	return contacts.Outcome{
		FullName:      c.FullName,
		CompanyName:   c.CompanyName,
		CompanyDomain: c.CompanyDomain,
		WorkEmail:     c.WorkEmail,
		Status:        "error",
		Error:         redact.Secrets(err.Error()),
	}
}

func successOutcome(state *agent.WorkflowState) contacts.Outcome {
	c := state.Contact
	return contacts.Outcome{
		FullName:         c.FullName,
		CompanyName:      c.CompanyName,
		CompanyDomain:    c.CompanyDomain,
		WorkEmail:        c.WorkEmail,
		DraftEmail:       state.Draft,
		Status:           "ok",
		DraftIterations:  state.DraftIteration,
		SearchIterations: state.SearchIteration,
		BudgetExhausted:  state.BudgetExhausted,
	}
}

func errorKind(err error) string {
	var ve *agent.ValidationError
	if errors.As(err, &ve) {
		return "validation"
	}
	var mv *agent.MalformedVerdictError
	if errors.As(err, &mv) {
		return "malformed-verdict"
	}
	var ge *agent.GenerationError
	if errors.As(err, &ge) {
		return "generation"
	}
	return "other"
}
