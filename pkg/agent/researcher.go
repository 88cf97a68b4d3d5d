package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// defaultSearchAttempts bounds the research sub-loop. Three attempts keeps
// cost predictable against a paid search API; running out of attempts is a
// soft outcome, the workflow proceeds with whatever was found.
const defaultSearchAttempts = 3

// Researcher gathers enough information about a contact to support
// drafting. One Research call runs the SEARCH -> SUMMARIZE -> ANALYZE
// sub-loop until the analyzer reports sufficiency or attempts run out.
type Researcher struct {
	searcher    WebSearcher
	gen         TextGenerator
	maxAttempts int
	log         *zap.Logger
}

// NewResearcher wires the research stage. maxAttempts <= 0 selects the
// default bound of 3.
func NewResearcher(searcher WebSearcher, gen TextGenerator, maxAttempts int, log *zap.Logger) *Researcher {
	if maxAttempts <= 0 {
		maxAttempts = defaultSearchAttempts
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Researcher{searcher: searcher, gen: gen, maxAttempts: maxAttempts, log: log}
}

// Research runs one research sub-loop for the given need and appends its
// findings to state.ResearchSummary. SearchIteration is reset at entry and
// counts web-search invocations within this sub-loop.
func (r *Researcher) Research(ctx context.Context, state *WorkflowState, need string) error {
	state.SearchIteration = 0
	feedback := ""
	lastQuery := ""

	for {
		state.SearchIteration++
		query := searchQuery(state.Contact, need, feedback, lastQuery)
		lastQuery = query

		resp, err := r.searcher.Search(ctx, query)
		if err != nil {
			// Degraded search is tolerated: proceed with an empty result
			// set rather than failing the run.
			r.log.Warn("web search degraded",
				zap.String("contact", state.Contact.Identity()),
				zap.Int("attempt", state.SearchIteration),
				zap.Error(err))
			resp = SearchResponse{}
		}
		state.record("search", query)

		summary, err := r.gen.Generate(ctx, summarizePrompt(state.Contact, state.Sender.Name, rawResults(resp)))
		if err != nil {
			return &GenerationError{Stage: "summarize", Err: err}
		}
		if state.ResearchSummary != "" {
			state.ResearchSummary += "\n\n"
		}
		state.ResearchSummary += strings.TrimSpace(summary)
		state.record("summarize", "")

		analysis, err := r.gen.Generate(ctx, analyzePrompt(need, state.ResearchSummary))
		if err != nil {
			return &GenerationError{Stage: "analyze", Err: err}
		}
		sufficient, reason := parseAnalysis(analysis)
		state.record("analyze", reason)

		if sufficient {
			return nil
		}
		if state.SearchIteration >= r.maxAttempts {
			r.log.Info("research budget exhausted, proceeding with partial context",
				zap.String("contact", state.Contact.Identity()),
				zap.Int("attempts", state.SearchIteration))
			return nil
		}
		feedback = reason
	}
}

func rawResults(resp SearchResponse) string {
	if resp.Empty() {
		return "(no results found)"
	}
	var b strings.Builder
	for i, res := range resp.Results {
		fmt.Fprintf(&b, "%d. %s (%s)\n%s\n", i+1, res.Title, res.URL, res.Snippet)
	}
	if resp.Context != "" {
		b.WriteString("\n")
		b.WriteString(resp.Context)
	}
	return b.String()
}

// parseAnalysis extracts the SUFFICIENT verdict and a feedback line from the
// analyzer's response. Unlike evaluator verdicts, a missing marker is treated
// as "not sufficient" with the whole response as feedback; the sub-loop's
// attempt cap bounds the cost of a chatty analyzer.
func parseAnalysis(out string) (sufficient bool, feedback string) {
	var reason string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "SUFFICIENT:"); ok {
			sufficient = strings.EqualFold(strings.TrimSpace(rest), "yes")
		}
		if rest, ok := strings.CutPrefix(line, "REASON:"); ok {
			reason = strings.TrimSpace(rest)
		}
	}
	if reason == "" {
		reason = strings.TrimSpace(out)
	}
	return sufficient, reason
}
