package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketbot/internal/model"
)

func structuredNVDA() model.Record {
	return model.Record{
		Variant:    model.InsiderPurchase,
		Subject:    "Jensen Huang",
		Ticker:     "NVDA",
		OccurredOn: "2026-02-25",
		Value:      "$1,200,000",
	}
}

func candidate(subject, ticker string, conf model.Confidence) model.Candidate {
	return model.Candidate{
		Record: model.Record{
			Variant: model.InsiderPurchase,
			Subject: subject,
			Ticker:  ticker,
		},
		Provenance: model.FromText,
		Confidence: conf,
	}
}

func TestUnionStructuredWinsOnOverlap(t *testing.T) {
	known := []model.Record{structuredNVDA()}
	overlap := candidate("jensen huang", "nvda", model.BackupConfirmed)
	overlap.Value = "$999"

	got := Union(known, []model.Candidate{overlap})
	require.Len(t, got, 1)
	assert.Equal(t, "$1,200,000", got[0].Value)
}

func TestUnionOnlyConfirmedCandidatesQualify(t *testing.T) {
	got := Union(nil, []model.Candidate{
		candidate("A", "AAA", model.DateConfirmed),
		candidate("B", "BBB", model.BackupConfirmed),
		candidate("C", "CCC", model.Unverified),
		candidate("D", "DDD", model.Rejected),
	})
	require.Len(t, got, 2)
	assert.Equal(t, "AAA", got[0].Ticker)
	assert.Equal(t, "BBB", got[1].Ticker)
}

func TestUnionNoPairAppearsTwice(t *testing.T) {
	got := Union(
		[]model.Record{structuredNVDA(), structuredNVDA()},
		[]model.Candidate{
			candidate("Jensen Huang", "NVDA", model.DateConfirmed),
			candidate("Jensen Huang", "NVDA", model.DateConfirmed),
		})
	assert.Len(t, got, 1)
}

func TestInStructuredCaseInsensitive(t *testing.T) {
	known := []model.Record{structuredNVDA()}
	assert.True(t, InStructured(known, candidate("JENSEN HUANG", "nvda", model.Unverified)))
	assert.False(t, InStructured(known, candidate("Lisa Su", "AMD", model.Unverified)))
}
