// Package trend turns historical assessment records into time-windowed
// statistics and section-level breakdowns. Everything here is a pure
// function of its inputs: no network, no mutable state.
package trend

import (
	"fmt"
	"sort"
	"time"

	"github.com/complyon/complyon-go/internal/types"
)

// Window selects how far back records are considered.
type Window string

const (
	Last30Days  Window = "last_30_days"
	Last3Months Window = "last_3_months"
	Last6Months Window = "last_6_months"
	LastYear    Window = "last_year"
	AllTime     Window = "all_time"
)

// ParseWindow validates a window label.
func ParseWindow(s string) (Window, error) {
	switch Window(s) {
	case Last30Days, Last3Months, Last6Months, LastYear, AllTime:
		return Window(s), nil
	default:
		return "", fmt.Errorf("unknown trend window %q", s)
	}
}

// cutoff returns the earliest completedAt admitted by the window, or the
// zero time for all_time.
func (w Window) cutoff(now time.Time) time.Time {
	switch w {
	case Last30Days:
		return now.AddDate(0, 0, -30)
	case Last3Months:
		return now.AddDate(0, -3, 0)
	case Last6Months:
		return now.AddDate(0, -6, 0)
	case LastYear:
		return now.AddDate(-1, 0, 0)
	default:
		return time.Time{}
	}
}

// Direction is the trend verdict.
type Direction string

const (
	Improving Direction = "improving"
	Declining Direction = "declining"
	Stable    Direction = "stable"
)

// improvementThreshold is the fixed score delta beyond which a change
// counts as a real trend. It is a product decision, not a statistical test.
const improvementThreshold = 5.0

func direction(improvement float64) Direction {
	switch {
	case improvement > improvementThreshold:
		return Improving
	case improvement < -improvementThreshold:
		return Declining
	default:
		return Stable
	}
}

// Summary is the windowed roll-up displayed on the results page.
type Summary struct {
	TotalAssessments int       `json:"totalAssessments"`
	AverageScore     float64   `json:"averageScore"`
	ScoreImprovement float64   `json:"scoreImprovement"` // latest minus oldest
	BestScore        float64   `json:"bestScore"`
	WorstScore       float64   `json:"worstScore"`
	LatestScore      float64   `json:"latestScore"`
	Trend            Direction `json:"trend"`
}

// SectionSummary is the same verdict computed per compliance section.
type SectionSummary struct {
	Section          string    `json:"section"`
	LatestScore      float64   `json:"latestScore"`
	ScoreImprovement float64   `json:"scoreImprovement"`
	Trend            Direction `json:"trend"`
}

// MergeHistory folds incoming records into existing ones, deduplicating by
// sessionID (an already-seen session updates in place rather than
// duplicating) and returning the result ordered by completedAt descending.
func MergeHistory(existing, incoming []types.AssessmentRecord) []types.AssessmentRecord {
	merged := make([]types.AssessmentRecord, len(existing))
	copy(merged, existing)

	index := make(map[string]int, len(merged))
	for i, r := range merged {
		index[r.SessionID] = i
	}
	for _, r := range incoming {
		if i, seen := index[r.SessionID]; seen {
			merged[i] = r
			continue
		}
		index[r.SessionID] = len(merged)
		merged = append(merged, r)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CompletedAt.After(merged[j].CompletedAt)
	})
	return merged
}

// filter keeps records completed at or after the window cutoff, ordered
// oldest to newest for improvement math.
func filter(records []types.AssessmentRecord, w Window, now time.Time) []types.AssessmentRecord {
	cut := w.cutoff(now)
	var out []types.AssessmentRecord
	for _, r := range records {
		if !cut.IsZero() && r.CompletedAt.Before(cut) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompletedAt.Before(out[j].CompletedAt)
	})
	return out
}

// Aggregate computes the windowed summary. An empty window yields a zero
// Summary with a stable trend.
func Aggregate(records []types.AssessmentRecord, w Window, now time.Time) Summary {
	in := filter(records, w, now)
	if len(in) == 0 {
		return Summary{Trend: Stable}
	}

	s := Summary{
		TotalAssessments: len(in),
		BestScore:        in[0].OverallScore,
		WorstScore:       in[0].OverallScore,
	}
	sum := 0.0
	for _, r := range in {
		sum += r.OverallScore
		if r.OverallScore > s.BestScore {
			s.BestScore = r.OverallScore
		}
		if r.OverallScore < s.WorstScore {
			s.WorstScore = r.OverallScore
		}
	}
	s.AverageScore = sum / float64(len(in))
	s.LatestScore = in[len(in)-1].OverallScore
	s.ScoreImprovement = s.LatestScore - in[0].OverallScore
	s.Trend = direction(s.ScoreImprovement)
	return s
}

// SectionTrends applies the threshold rule independently per section key.
// Sections missing from either endpoint record are skipped: improvement
// needs both an oldest and a latest sample.
func SectionTrends(records []types.AssessmentRecord, w Window, now time.Time) []SectionSummary {
	in := filter(records, w, now)
	if len(in) == 0 {
		return nil
	}
	oldest, latest := in[0], in[len(in)-1]

	keys := make([]string, 0, len(latest.SectionScores))
	for k := range latest.SectionScores {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []SectionSummary
	for _, k := range keys {
		first, ok := oldest.SectionScores[k]
		if !ok {
			continue
		}
		last := latest.SectionScores[k]
		out = append(out, SectionSummary{
			Section:          k,
			LatestScore:      last,
			ScoreImprovement: last - first,
			Trend:            direction(last - first),
		})
	}
	return out
}
