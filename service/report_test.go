package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veritick/veritick/adapters/store"
	"github.com/veritick/veritick/core"
)

// mapRecorder is a plain in-test token recorder.
type mapRecorder map[string]int64

func (m mapRecorder) Record(token string, createdAtMs int64) { m[token] = createdAtMs }

func (m mapRecorder) CreatedAt(token string) (int64, bool) {
	v, ok := m[token]
	return v, ok
}

func TestAggregateDeltas(t *testing.T) {
	recorder := mapRecorder{
		"tok-a": 1000,
		"tok-b": 2000,
		"tok-c": 5000,
	}

	events := []core.ScanEvent{
		{ParticipantID: "alice", Token: "tok-a", ServerRecvTs: 1300},
		{ParticipantID: "bob", Token: "tok-b", ServerRecvTs: 2100},
		{ParticipantID: "alice", Token: "tok-b", ServerRecvTs: 2500},
		// Token this session never minted: contributes nothing.
		{ParticipantID: "mallory", Token: "tok-foreign", ServerRecvTs: 9000},
		// Receipt before recorded creation: clock-skew artifact, discarded.
		{ParticipantID: "bob", Token: "tok-c", ServerRecvTs: 4800},
	}

	deltas := AggregateDeltas(events, recorder)

	assert.Equal(t, []string{"alice", "bob"}, deltas.Order)
	assert.Equal(t, []float64{300, 500}, deltas.Deltas["alice"])
	assert.Equal(t, []float64{100}, deltas.Deltas["bob"])
	assert.NotContains(t, deltas.Deltas, "mallory")
}

func TestBuildReportPopulationPolicy(t *testing.T) {
	ctx := context.Background()
	log := store.NewMemoryLog(100)
	recorder := mapRecorder{}

	// Seven participants around 100ms plus one far outlier.
	averages := map[string]int64{
		"p1": 100, "p2": 105, "p3": 98, "p4": 102, "p5": 101, "p6": 99,
		"slow": 2000,
	}
	for id, delta := range averages {
		token := "tok-" + id
		recorder.Record(token, 1000)
		_, err := log.Append(ctx, core.ScanEvent{
			ParticipantID: id,
			Token:         token,
			ServerRecvTs:  1000 + delta,
		})
		require.NoError(t, err)
	}

	report, err := NewReportService(log).BuildReport(ctx, recorder, core.PolicyPopulation)
	require.NoError(t, err)

	assert.Equal(t, core.PolicyPopulation, report.Policy)
	assert.Equal(t, 6, report.SampleSize)
	assert.InDelta(t, 100.833, report.Mean, 0.001)
	require.Len(t, report.Participants, 7)

	byID := make(map[string]ParticipantReport)
	for _, p := range report.Participants {
		byID[p.ParticipantID] = p
	}

	assert.Equal(t, 0, byID["p1"].Suspicion)
	assert.Equal(t, core.TierNormal, byID["p1"].Tier)
	assert.Equal(t, 100, byID["slow"].Suspicion)
	assert.Equal(t, core.TierHighRisk, byID["slow"].Tier)
}

func TestBuildReportFixedPolicy(t *testing.T) {
	ctx := context.Background()
	log := store.NewMemoryLog(100)
	recorder := mapRecorder{}

	// Token minted with the issuer clock at 1000, ingested at 1300:
	// the 300ms delta lands in the suspect band.
	recorder.Record("tok-1", 1000)
	_, err := log.Append(ctx, core.ScanEvent{
		ParticipantID: "alice",
		Token:         "tok-1",
		ServerRecvTs:  1300,
	})
	require.NoError(t, err)

	report, err := NewReportService(log).BuildReport(ctx, recorder, core.PolicyFixed)
	require.NoError(t, err)

	require.Len(t, report.Participants, 1)
	assert.Equal(t, 300.0, report.Participants[0].AvgDeltaMs)
	assert.Equal(t, core.TierSuspect, report.Participants[0].Tier)
}

func TestBuildReportUnknownPolicy(t *testing.T) {
	log := store.NewMemoryLog(10)

	_, err := NewReportService(log).BuildReport(context.Background(), mapRecorder{}, "median")
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
}

func TestBuildReportEmptyLog(t *testing.T) {
	log := store.NewMemoryLog(10)

	report, err := NewReportService(log).BuildReport(context.Background(), mapRecorder{}, core.PolicyPopulation)
	require.NoError(t, err)
	assert.Empty(t, report.Participants)
	assert.Equal(t, 0.0, report.Mean)
}
