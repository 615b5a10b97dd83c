package trend

import (
	"testing"
	"time"

	"github.com/complyon/complyon-go/internal/types"
)

func records(now time.Time, scores ...float64) []types.AssessmentRecord {
	out := make([]types.AssessmentRecord, len(scores))
	for i, sc := range scores {
		out[i] = types.AssessmentRecord{
			ID:           string(rune('a' + i)),
			SessionID:    string(rune('A' + i)),
			OverallScore: sc,
			CompletedAt:  now.Add(time.Duration(i-len(scores)) * 24 * time.Hour),
		}
	}
	return out
}

func TestTrendThresholds(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		scores      []float64 // oldest to newest
		improvement float64
		want        Direction
	}{
		{[]float64{50, 53, 58}, 8, Improving},
		{[]float64{80, 78, 74}, -6, Declining},
		{[]float64{60, 61, 59}, -1, Stable},
		{[]float64{60, 65}, 5, Stable}, // exactly at threshold is stable
		{[]float64{42}, 0, Stable},
	}
	for _, c := range cases {
		s := Aggregate(records(now, c.scores...), AllTime, now)
		if s.ScoreImprovement != c.improvement {
			t.Fatalf("scores %v: improvement = %v, want %v", c.scores, s.ScoreImprovement, c.improvement)
		}
		if s.Trend != c.want {
			t.Fatalf("scores %v: trend = %s, want %s", c.scores, s.Trend, c.want)
		}
	}
}

func TestAggregateStatistics(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	s := Aggregate(records(now, 50, 80, 62), AllTime, now)
	if s.TotalAssessments != 3 {
		t.Fatalf("total = %d", s.TotalAssessments)
	}
	if s.BestScore != 80 || s.WorstScore != 50 || s.LatestScore != 62 {
		t.Fatalf("best/worst/latest = %v/%v/%v", s.BestScore, s.WorstScore, s.LatestScore)
	}
	if s.AverageScore != 64 {
		t.Fatalf("average = %v, want 64", s.AverageScore)
	}
}

func TestAggregateEmptyWindow(t *testing.T) {
	t.Parallel()
	now := time.Now()
	s := Aggregate(nil, Last30Days, now)
	if s.TotalAssessments != 0 || s.Trend != Stable {
		t.Fatalf("empty window should yield zero summary with stable trend: %+v", s)
	}
}

func TestWindowFiltering(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	rs := []types.AssessmentRecord{
		{SessionID: "old", OverallScore: 40, CompletedAt: now.AddDate(0, -8, 0)},
		{SessionID: "mid", OverallScore: 50, CompletedAt: now.AddDate(0, -2, 0)},
		{SessionID: "new", OverallScore: 70, CompletedAt: now.AddDate(0, 0, -5)},
	}

	if s := Aggregate(rs, Last30Days, now); s.TotalAssessments != 1 || s.LatestScore != 70 {
		t.Fatalf("last_30_days: %+v", s)
	}
	if s := Aggregate(rs, Last3Months, now); s.TotalAssessments != 2 || s.ScoreImprovement != 20 {
		t.Fatalf("last_3_months: %+v", s)
	}
	if s := Aggregate(rs, AllTime, now); s.TotalAssessments != 3 || s.ScoreImprovement != 30 {
		t.Fatalf("all_time: %+v", s)
	}
}

func TestSectionTrendsIndependentPerSection(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	rs := []types.AssessmentRecord{
		{
			SessionID:   "s1",
			CompletedAt: now.AddDate(0, 0, -10),
			SectionScores: map[string]float64{
				"access_control":  50,
				"data_protection": 80,
				"incident_mgmt":   60,
			},
		},
		{
			SessionID:   "s2",
			CompletedAt: now.AddDate(0, 0, -1),
			SectionScores: map[string]float64{
				"access_control":  60, // +10 improving
				"data_protection": 70, // -10 declining
				"incident_mgmt":   62, // +2 stable
				"vendor_risk":     90, // no baseline, skipped
			},
		},
	}

	got := SectionTrends(rs, AllTime, now)
	want := map[string]Direction{
		"access_control":  Improving,
		"data_protection": Declining,
		"incident_mgmt":   Stable,
	}
	if len(got) != len(want) {
		t.Fatalf("sections = %+v, want %d entries", got, len(want))
	}
	for _, s := range got {
		if want[s.Section] != s.Trend {
			t.Fatalf("section %s: trend = %s, want %s", s.Section, s.Trend, want[s.Section])
		}
	}
}

func TestMergeHistoryDeduplicatesBySession(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	existing := []types.AssessmentRecord{
		{SessionID: "s1", OverallScore: 50, CompletedAt: now.AddDate(0, 0, -3)},
		{SessionID: "s2", OverallScore: 60, CompletedAt: now.AddDate(0, 0, -2)},
	}
	incoming := []types.AssessmentRecord{
		{SessionID: "s2", OverallScore: 65, CompletedAt: now.AddDate(0, 0, -2)}, // update in place
		{SessionID: "s3", OverallScore: 70, CompletedAt: now.AddDate(0, 0, -1)},
	}

	merged := MergeHistory(existing, incoming)
	if len(merged) != 3 {
		t.Fatalf("merged length = %d, want 3 (s2 deduplicated)", len(merged))
	}
	if merged[0].SessionID != "s3" {
		t.Fatalf("order should be completedAt descending, got %s first", merged[0].SessionID)
	}
	for _, r := range merged {
		if r.SessionID == "s2" && r.OverallScore != 65 {
			t.Fatalf("s2 not updated in place: %+v", r)
		}
	}
}

func TestParseWindow(t *testing.T) {
	t.Parallel()
	for _, ok := range []string{"last_30_days", "last_3_months", "last_6_months", "last_year", "all_time"} {
		if _, err := ParseWindow(ok); err != nil {
			t.Fatalf("%s should parse: %v", ok, err)
		}
	}
	if _, err := ParseWindow("fortnight"); err == nil {
		t.Fatal("unknown window should be rejected")
	}
}
