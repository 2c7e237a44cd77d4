package service

import (
	"context"
	"fmt"

	"github.com/veritick/veritick/core"
	"github.com/veritick/veritick/ports"
)

// ParticipantDeltas holds the per-participant delta sequences derived
// from the attendance log, in order of each participant's first scan.
type ParticipantDeltas struct {
	Order  []string
	Deltas map[string][]float64
}

// AggregateDeltas joins retained scans back to the issuing session's
// token record. Tokens this session did not mint contribute nothing,
// which scopes all statistics to one generator session. Negative deltas
// (receipt before recorded creation, a clock-skew artifact) are
// discarded rather than clamped.
func AggregateDeltas(events []core.ScanEvent, recorder ports.TokenRecorder) ParticipantDeltas {
	out := ParticipantDeltas{Deltas: make(map[string][]float64)}

	for _, ev := range events {
		createdAt, ok := recorder.CreatedAt(ev.Token)
		if !ok {
			continue
		}

		delta := float64(ev.ServerRecvTs - createdAt)
		if delta < 0 {
			continue
		}

		if _, seen := out.Deltas[ev.ParticipantID]; !seen {
			out.Order = append(out.Order, ev.ParticipantID)
		}
		out.Deltas[ev.ParticipantID] = append(out.Deltas[ev.ParticipantID], delta)
	}

	return out
}

// ParticipantReport is one participant's line in a suspicion report.
type ParticipantReport struct {
	ParticipantID string    `json:"participantId"`
	Scans         int       `json:"scans"`
	AvgDeltaMs    float64   `json:"avgDeltaMs"`
	Suspicion     int       `json:"suspicion"`
	Tier          core.Tier `json:"tier"`
}

// Report is a suspicion report over the current attendance log.
type Report struct {
	Policy       core.ScorePolicy    `json:"policy"`
	Mean         float64             `json:"mean"`
	Std          float64             `json:"std"`
	SampleSize   int                 `json:"sampleSize"`
	Participants []ParticipantReport `json:"participants"`
}

// ReportService builds suspicion reports from the attendance log and a
// generator session's token record.
type ReportService struct {
	log       ports.AttendanceLog
	popScorer core.PopulationScorer
	fixScorer core.FixedThresholdScorer
}

// NewReportService creates a report service with default scorer tuning.
func NewReportService(log ports.AttendanceLog) *ReportService {
	return &ReportService{
		log:       log,
		popScorer: core.NewPopulationScorer(),
		fixScorer: core.NewFixedThresholdScorer(),
	}
}

// BuildReport aggregates deltas against the given token record and
// scores every participant under the selected policy.
//
// Under PolicyPopulation the robust mean/std is estimated over the
// participant averages and each average is scored against it. Under
// PolicyFixed each average is classified directly against the absolute
// thresholds and the numeric suspicion stays 0.
func (s *ReportService) BuildReport(ctx context.Context, recorder ports.TokenRecorder, policy core.ScorePolicy) (Report, error) {
	events, err := s.log.Events(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("reading log: %w", err)
	}

	deltas := AggregateDeltas(events, recorder)

	averages := make([]float64, 0, len(deltas.Order))
	avgByParticipant := make(map[string]float64, len(deltas.Order))
	for _, id := range deltas.Order {
		ds := deltas.Deltas[id]
		var sum float64
		for _, d := range ds {
			sum += d
		}
		avg := sum / float64(len(ds))
		averages = append(averages, avg)
		avgByParticipant[id] = avg
	}

	report := Report{
		Policy:       policy,
		Participants: make([]ParticipantReport, 0, len(deltas.Order)),
	}

	switch policy {
	case core.PolicyPopulation:
		est := core.RobustMeanStd(averages)
		report.Mean = est.Mean
		report.Std = est.Std
		report.SampleSize = len(est.Included)

		for _, id := range deltas.Order {
			avg := avgByParticipant[id]
			score := s.popScorer.Score(avg, est.Mean, est.Std)
			report.Participants = append(report.Participants, ParticipantReport{
				ParticipantID: id,
				Scans:         len(deltas.Deltas[id]),
				AvgDeltaMs:    avg,
				Suspicion:     score,
				Tier:          core.TierFor(score),
			})
		}

	case core.PolicyFixed:
		report.SampleSize = len(averages)
		for _, id := range deltas.Order {
			avg := avgByParticipant[id]
			report.Participants = append(report.Participants, ParticipantReport{
				ParticipantID: id,
				Scans:         len(deltas.Deltas[id]),
				AvgDeltaMs:    avg,
				Tier:          s.fixScorer.Classify(avg),
			})
		}

	default:
		return Report{}, fmt.Errorf("%w: unknown policy %q", core.ErrInvalidRequest, policy)
	}

	return report, nil
}
