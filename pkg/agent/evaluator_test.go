package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseVerdict(t *testing.T) {
	t.Parallel()

	t.Run("full response", func(t *testing.T) {
		v, err := ParseVerdict("COMMAND: REDRAFT\nREASON: too generic\nDETAILS: mention the funding round\nalso shorten the opener")
		require.NoError(t, err)
		assert.Equal(t, DecisionRevise, v.Decision)
		assert.Equal(t, "too generic", v.Reason)
		assert.Equal(t, "mention the funding round\nalso shorten the opener", v.Details)
	})

	t.Run("command only", func(t *testing.T) {
		v, err := ParseVerdict("COMMAND: END")
		require.NoError(t, err)
		assert.Equal(t, DecisionAccept, v.Decision)
		assert.Empty(t, v.Reason)
		assert.Empty(t, v.Details)
	})

	t.Run("lowercase token", func(t *testing.T) {
		v, err := ParseVerdict("COMMAND: search\nREASON: no info on their role")
		require.NoError(t, err)
		assert.Equal(t, DecisionResearch, v.Decision)
	})

	t.Run("surrounding prose ignored", func(t *testing.T) {
		v, err := ParseVerdict("Here is my evaluation.\n\nCOMMAND: END\nREASON: ready\nDETAILS: solid personalization")
		require.NoError(t, err)
		assert.Equal(t, DecisionAccept, v.Decision)
	})

	t.Run("unknown token fails loud", func(t *testing.T) {
		_, err := ParseVerdict("COMMAND: SHIP_IT\nREASON: lgtm")
		var mv *MalformedVerdictError
		require.ErrorAs(t, err, &mv)
	})

	t.Run("missing command fails loud", func(t *testing.T) {
		_, err := ParseVerdict("REASON: looks fine\nDETAILS: none")
		var mv *MalformedVerdictError
		require.ErrorAs(t, err, &mv)
	})

	t.Run("empty response fails loud", func(t *testing.T) {
		_, err := ParseVerdict("")
		var mv *MalformedVerdictError
		require.ErrorAs(t, err, &mv)
	})
}

func TestEvaluateRecordsVerdict(t *testing.T) {
	t.Parallel()

	gen := genFunc(func(_ context.Context, prompt string) (string, error) {
		return "COMMAND: REDRAFT\nREASON: generic\nDETAILS: name their product", nil
	})
	e := NewEvaluator(gen, zap.NewNop())

	state := NewState(validContact(), testSender())
	state.Draft = "Dear A. Lee, ..."
	v, err := e.Evaluate(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, DecisionRevise, v.Decision)
	require.NotNil(t, state.LastEvaluation)
	assert.Equal(t, v, *state.LastEvaluation)
}

func TestEvaluateSurfacesGenerationFailure(t *testing.T) {
	t.Parallel()

	gen := genFunc(func(_ context.Context, prompt string) (string, error) {
		return "", errors.New("deadline exceeded")
	})
	e := NewEvaluator(gen, zap.NewNop())

	state := NewState(validContact(), testSender())
	state.Draft = "Dear A. Lee, ..."
	_, err := e.Evaluate(context.Background(), state)
	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
}

func TestEvaluateDoesNotDefaultOnGarbage(t *testing.T) {
	t.Parallel()

	gen := genFunc(func(_ context.Context, prompt string) (string, error) {
		return "I would probably send this email as-is!", nil
	})
	e := NewEvaluator(gen, zap.NewNop())

	state := NewState(validContact(), testSender())
	state.Draft = "Dear A. Lee, ..."
	_, err := e.Evaluate(context.Background(), state)
	var mv *MalformedVerdictError
	require.ErrorAs(t, err, &mv)
	assert.Nil(t, state.LastEvaluation, "garbage must not be recorded as any decision")
}
