package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// routingGen answers analyze prompts with a scripted verdict and every
// other prompt with a fixed summary.
type routingGen struct {
	mu       sync.Mutex
	analyses []string
	analyzed int
}

func (g *routingGen) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if strings.Contains(prompt, "SUFFICIENT:") {
		idx := g.analyzed
		if idx >= len(g.analyses) {
			idx = len(g.analyses) - 1
		}
		g.analyzed++
		return g.analyses[idx], nil
	}
	return "a condensed summary", nil
}

type recordingSearcher struct {
	mu      sync.Mutex
	queries []string
	err     error
}

func (s *recordingSearcher) Search(_ context.Context, query string) (SearchResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	if s.err != nil {
		return SearchResponse{}, s.err
	}
	return SearchResponse{Context: "raw context"}, nil
}

func TestResearchStopsAtAttemptCap(t *testing.T) {
	t.Parallel()

	searcher := &recordingSearcher{}
	gen := &routingGen{analyses: []string{"SUFFICIENT: No\nREASON: nothing specific found"}}
	r := NewResearcher(searcher, gen, 3, zap.NewNop())

	state := NewState(validContact(), testSender())
	err := r.Research(context.Background(), state, "background")
	require.NoError(t, err, "an exhausted budget is a soft success")
	assert.Len(t, searcher.queries, 3, "never more than three searches per sub-loop")
	assert.Equal(t, 3, state.SearchIteration)
	assert.NotEmpty(t, state.ResearchSummary)
}

func TestResearchStopsWhenSufficient(t *testing.T) {
	t.Parallel()

	searcher := &recordingSearcher{}
	gen := &routingGen{analyses: []string{"SUFFICIENT: Yes\nREASON: plenty"}}
	r := NewResearcher(searcher, gen, 3, zap.NewNop())

	state := NewState(validContact(), testSender())
	err := r.Research(context.Background(), state, "background")
	require.NoError(t, err)
	assert.Len(t, searcher.queries, 1)
	assert.Equal(t, 1, state.SearchIteration)
}

func TestResearchToleratesSearchFailure(t *testing.T) {
	t.Parallel()

	searcher := &recordingSearcher{err: errors.New("search provider down")}
	gen := &routingGen{analyses: []string{"SUFFICIENT: Yes\nREASON: fine"}}
	r := NewResearcher(searcher, gen, 3, zap.NewNop())

	state := NewState(validContact(), testSender())
	err := r.Research(context.Background(), state, "background")
	require.NoError(t, err, "a failed search is degraded, not fatal")
	assert.NotEmpty(t, state.ResearchSummary, "summarize still runs over the empty result set")
}

func TestResearchRetryQueryUsesFeedback(t *testing.T) {
	t.Parallel()

	searcher := &recordingSearcher{}
	gen := &routingGen{analyses: []string{
		"SUFFICIENT: No\nREASON: look for recent funding rounds",
		"SUFFICIENT: Yes\nREASON: found it",
	}}
	r := NewResearcher(searcher, gen, 3, zap.NewNop())

	state := NewState(validContact(), testSender())
	require.NoError(t, r.Research(context.Background(), state, "background"))
	require.Len(t, searcher.queries, 2)
	assert.NotEqual(t, searcher.queries[0], searcher.queries[1])
	assert.Contains(t, searcher.queries[1], "recent funding rounds",
		"retry query must carry the analyzer's feedback")
}

func TestResearchSurfacesGenerationFailure(t *testing.T) {
	t.Parallel()

	failing := genFunc(func(context.Context, string) (string, error) {
		return "", errors.New("provider timeout")
	})
	r := NewResearcher(&recordingSearcher{}, failing, 3, zap.NewNop())

	state := NewState(validContact(), testSender())
	err := r.Research(context.Background(), state, "background")
	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "summarize", ge.Stage)
}

type genFunc func(ctx context.Context, prompt string) (string, error)

func (f genFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func TestParseAnalysis(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name           string
		in             string
		wantSufficient bool
		wantFeedback   string
	}{
		{"yes", "SUFFICIENT: Yes\nREASON: plenty of detail", true, "plenty of detail"},
		{"no", "SUFFICIENT: No\nREASON: too generic", false, "too generic"},
		{"case insensitive", "SUFFICIENT: yes", true, "SUFFICIENT: yes"},
		{"missing marker treated as insufficient", "I think this looks fine.", false, "I think this looks fine."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sufficient, feedback := parseAnalysis(tc.in)
			assert.Equal(t, tc.wantSufficient, sufficient)
			assert.Equal(t, tc.wantFeedback, feedback)
		})
	}
}
