// Package contacts provides the CSV contracts for contact input and
// outcome output, plus the append-only file sink the pipeline persists to.
package contacts

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/outreachkit/outreach-agent-pipeline/pkg/agent"
)

// Input header contract. Extra columns are ignored; the named required
// columns must exist.
var requiredInputColumns = []string{"full_name", "company_domain", "work_email"}

// ReadContacts reads contact records from a CSV with a header row.
func ReadContacts(r io.Reader) ([]agent.Contact, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredInputColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}

	var out []agent.Contact
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		get := func(col string) string {
			i, ok := index[col]
			if !ok || i < 0 || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		out = append(out, agent.Contact{
			Match:         get("match"),
			FullName:      get("full_name"),
			JobTitle:      get("job_title"),
			Location:      get("location"),
			CompanyDomain: get("company_domain"),
			CompanyName:   get("company_name"),
			LinkedIn:      get("linkedin"),
			WorkEmail:     get("work_email"),
			DraftEmail:    get("draft_email"),
		})
	}
}

// Outcome is one output row per input contact, keyed by work email.
type Outcome struct {
	FullName      string
	CompanyName   string
	CompanyDomain string
	WorkEmail     string
	DraftEmail    string

	// Status is "ok", "error", or "skipped".
	Status string
	// Error is the redacted failure or rejection reason, empty for ok rows.
	Error string

	DraftIterations  int
	SearchIterations int
	BudgetExhausted  bool
}

// Header returns the stable CSV header for Outcome rows.
func Header() []string {
	return []string{
		"full_name",
		"company_name",
		"company_domain",
		"work_email",
		"draft_email",
		"status",
		"error",
		"draft_iterations",
		"search_iterations",
		"budget_exhausted",
	}
}

// WriteOutcomes writes rows as CSV with the stable Header() ordering.
// writeHeader is false when appending to a file that already has one.
func WriteOutcomes(w io.Writer, rows []Outcome, writeHeader bool) error {
	cw := csv.NewWriter(w)
	if writeHeader {
		if err := cw.Write(Header()); err != nil {
			return err
		}
	}
	for _, r := range rows {
		if err := cw.Write([]string{
			r.FullName,
			r.CompanyName,
			r.CompanyDomain,
			r.WorkEmail,
			r.DraftEmail,
			r.Status,
			r.Error,
			strconv.Itoa(r.DraftIterations),
			strconv.Itoa(r.SearchIterations),
			strconv.FormatBool(r.BudgetExhausted),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVSink appends outcome rows to a file, creating it (with header) on
// first use. Store is called once per pipeline run, after all batches
// settle, so a crashed run never leaves a half-written batch behind.
type CSVSink struct {
	Path string
}

// Store implements the pipeline's persistence sink.
func (s *CSVSink) Store(_ context.Context, rows []Outcome) error {
	if len(rows) == 0 {
		return nil
	}
	info, err := os.Stat(s.Path)
	writeHeader := err != nil || info.Size() == 0

	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open outcome sink: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if err := WriteOutcomes(f, rows, writeHeader); err != nil {
		return fmt.Errorf("append outcomes: %w", err)
	}
	return f.Close()
}
