package cascade

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketbot/internal/config"
	"marketbot/internal/grammar"
	"marketbot/internal/model"
)

// scriptedText replays canned responses in call order.
type scriptedText struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (s *scriptedText) Complete(_ context.Context, prompt string, _ int) (string, error) {
	i := s.calls
	s.calls++
	s.prompts = append(s.prompts, prompt)
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", errors.New("unscripted call")
}

var defaultGaps = config.CascadeConfig{MinGapDays: 30, MaxGapDays: 120}

func congressCandidate() *model.Candidate {
	return &model.Candidate{
		Record: model.Record{
			Variant:    model.CongressionalTrade,
			Subject:    "Jane Doe",
			Ticker:     "AAPL",
			OccurredOn: "2026-02-20",
			Amount:     "$100,001 - $250,000",
		},
		Provenance: model.FromText,
		Confidence: model.Unverified,
	}
}

func earningsCandidate() *model.Candidate {
	return &model.Candidate{
		Record: model.Record{
			Variant:    model.EarningsReport,
			Subject:    "XOM",
			Ticker:     "XOM",
			OccurredOn: "2026-07-30",
		},
		Provenance: model.FromText,
		Confidence: model.Unverified,
	}
}

func TestDateConfirmedTakesOneCall(t *testing.T) {
	text := &scriptedText{responses: []string{"2026-02-20"}}
	v := New(text, grammar.Congress(), defaultGaps)

	c := congressCandidate()
	got := v.Verify(context.Background(), c, "2026-02-20")
	assert.Equal(t, model.DateConfirmed, got)
	assert.Equal(t, model.DateConfirmed, c.Confidence)
	assert.Equal(t, 1, text.calls)
}

func TestDateConfirmedStillNeedsAnchor(t *testing.T) {
	text := &scriptedText{responses: []string{
		"2026-07-30",
		"EPS: $2.15\nREVENUE: $94,000,000,000",
	}}
	v := New(text, grammar.Earnings(), defaultGaps)

	c := earningsCandidate()
	got := v.Verify(context.Background(), c, "2026-07-30")
	assert.Equal(t, model.DateConfirmed, got)
	assert.Equal(t, 2, text.calls)
	require.NotNil(t, c.EPSActual)
	assert.Equal(t, 2.15, *c.EPSActual)
	require.NotNil(t, c.RevenueActual)
	assert.Equal(t, 94_000_000_000.0, *c.RevenueActual)
}

func TestBackupConfirmedWithinWindow(t *testing.T) {
	// Last verifiable report 90 days before the claimed one, explicit YES,
	// figures present.
	text := &scriptedText{responses: []string{
		"2026-05-01",
		"YES",
		"EPS: $1.92\nREVENUE: $89,500,000,000",
	}}
	v := New(text, grammar.Earnings(), defaultGaps)

	c := earningsCandidate()
	got := v.Verify(context.Background(), c, "2026-07-30")
	assert.Equal(t, model.BackupConfirmed, got)
	assert.Equal(t, 3, text.calls)
}

func TestGapTooLargeRejectsWithoutBackupCall(t *testing.T) {
	text := &scriptedText{responses: []string{"2025-09-01"}}
	v := New(text, grammar.Earnings(), defaultGaps)

	got := v.Verify(context.Background(), earningsCandidate(), "2026-07-30")
	assert.Equal(t, model.Rejected, got)
	assert.Equal(t, 1, text.calls)
}

func TestGapTooSmallRejects(t *testing.T) {
	text := &scriptedText{responses: []string{"2026-07-20"}}
	v := New(text, grammar.Earnings(), defaultGaps)

	got := v.Verify(context.Background(), earningsCandidate(), "2026-07-30")
	assert.Equal(t, model.Rejected, got)
	assert.Equal(t, 1, text.calls)
}

func TestAmbiguousConfirmationRejects(t *testing.T) {
	text := &scriptedText{responses: []string{
		"2026-05-01",
		"It is possible that the report occurred on that date.",
	}}
	v := New(text, grammar.Earnings(), defaultGaps)

	got := v.Verify(context.Background(), earningsCandidate(), "2026-07-30")
	assert.Equal(t, model.Rejected, got)
	assert.Equal(t, 2, text.calls)
}

func TestConfirmedWithoutAnchorRejects(t *testing.T) {
	text := &scriptedText{responses: []string{
		"2026-05-01",
		"YES",
		"NO_FIGURES",
	}}
	v := New(text, grammar.Earnings(), defaultGaps)

	got := v.Verify(context.Background(), earningsCandidate(), "2026-07-30")
	assert.Equal(t, model.Rejected, got)
	assert.Equal(t, 3, text.calls)
}

func TestSourceErrorRejects(t *testing.T) {
	text := &scriptedText{errs: []error{errors.New("boom")}}
	v := New(text, grammar.Earnings(), defaultGaps)

	got := v.Verify(context.Background(), earningsCandidate(), "2026-07-30")
	assert.Equal(t, model.Rejected, got)
	assert.Equal(t, 1, text.calls)
}

func TestUnparseableRecencyRejects(t *testing.T) {
	text := &scriptedText{responses: []string{"UNKNOWN"}}
	v := New(text, grammar.Congress(), defaultGaps)

	got := v.Verify(context.Background(), congressCandidate(), "2026-02-20")
	assert.Equal(t, model.Rejected, got)
	assert.Equal(t, 1, text.calls)
}

func TestAffirmative(t *testing.T) {
	assert.True(t, affirmative("YES"))
	assert.True(t, affirmative("yes."))
	assert.True(t, affirmative("YES, confirmed. [1]"))
	assert.False(t, affirmative("NO"))
	assert.False(t, affirmative("The answer is YES"))
	assert.False(t, affirmative("YESTERDAY a report came out"))
}
