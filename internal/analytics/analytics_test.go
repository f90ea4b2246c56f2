package analytics

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"research-chatter/internal/storage"
)

func survey(faculty, exp string, responses map[string]int) storage.SurveyRecord {
	return storage.SurveyRecord{FacultyID: faculty, Experience: exp, Responses: responses}
}

func TestStatistics(t *testing.T) {
	state := storage.State{
		Participants: 3,
		Conversations: []storage.ConversationRecord{
			{ID: 1, User: "a", Bot: "b"},
			{ID: 2, User: "c", Bot: "d"},
		},
		Surveys: []storage.SurveyRecord{
			// mean 1.5 -> positive
			survey("f1", "0-2", map[string]int{"peou1": 1, "pu1": 2}),
			// mean exactly 2 -> positive
			survey("f2", "2-5", map[string]int{"peou1": 2, "pu1": 2, "trust1": 2}),
			// mean 4 -> not positive
			survey("f3", "5-10", map[string]int{"peou1": 4, "trust1": 4}),
		},
	}

	stats := Statistics(state)

	if stats.Participants != 3 {
		t.Errorf("Expected 3 participants, got %d", stats.Participants)
	}
	if stats.TotalChats != 2 {
		t.Errorf("Expected 2 chats, got %d", stats.TotalChats)
	}
	if stats.TotalSurveys != 3 {
		t.Errorf("Expected 3 surveys, got %d", stats.TotalSurveys)
	}
	// 2 of 3 -> 66.67 -> 67
	if stats.SatisfactionRate != 67 {
		t.Errorf("Expected satisfaction 67, got %d", stats.SatisfactionRate)
	}
}

func TestStatisticsEmptyData(t *testing.T) {
	stats := Statistics(storage.State{})
	if stats.SatisfactionRate != 0 || stats.TotalSurveys != 0 || stats.TotalChats != 0 {
		t.Errorf("Expected zero stats, got %+v", stats)
	}
}

func TestStatisticsSurveyWithoutResponsesIsNotPositive(t *testing.T) {
	state := storage.State{Surveys: []storage.SurveyRecord{
		survey("f1", "0-2", map[string]int{}),
		survey("f2", "0-2", map[string]int{"pu1": 1}),
	}}
	if got := Statistics(state).SatisfactionRate; got != 50 {
		t.Errorf("Expected 50, got %d", got)
	}
}

func TestSatisfactionRateBounds(t *testing.T) {
	for n := 1; n <= 7; n++ {
		var surveys []storage.SurveyRecord
		for i := 0; i < n; i++ {
			score := 1 + i%5
			surveys = append(surveys, survey("f", "0-2", map[string]int{"pu1": score}))
		}
		rate := Statistics(storage.State{Surveys: surveys}).SatisfactionRate
		if rate < 0 || rate > 100 {
			t.Fatalf("rate out of range for n=%d: %d", n, rate)
		}
	}
}

func TestExperienceDistribution(t *testing.T) {
	surveys := []storage.SurveyRecord{
		survey("a", "0-2", nil),
		survey("b", "10+", nil),
		survey("c", "10+", nil),
		survey("d", "twenty", nil),
		survey("e", "", nil),
		survey("f", "5-10", nil),
	}
	d := ExperienceDistribution(surveys)

	expected := map[Bucket]int{Bucket0To2: 1, Bucket2To5: 0, Bucket5To10: 1, Bucket10Plus: 2}
	for b, want := range expected {
		if d[b] != want {
			t.Errorf("Expected %d for %s, got %d", want, b, d[b])
		}
	}
	if len(d) != 4 {
		t.Errorf("Expected exactly four buckets, got %d", len(d))
	}
	if d.Total() != 4 {
		t.Errorf("Expected total 4 (unknown labels ignored), got %d", d.Total())
	}
}

func TestDistributionJSONOrder(t *testing.T) {
	d := Distribution{Bucket10Plus: 3, Bucket0To2: 1}
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"0-2":1,"2-5":0,"5-10":0,"10+":3}`
	if string(b) != want {
		t.Errorf("Expected %s, got %s", want, b)
	}
}

func TestAverageScores(t *testing.T) {
	surveys := []storage.SurveyRecord{
		survey("a", "0-2", map[string]int{"peou1": 1, "peou2": 2, "pu1": 3, "trust1": 5, "other": 4}),
		survey("b", "0-2", map[string]int{"peou1": 3, "pu1": 1, "pu2": 2}),
	}
	avg := AverageScores(surveys)

	if avg.PEOU != 2 {
		t.Errorf("Expected peou 2, got %v", avg.PEOU)
	}
	if avg.PU != 2 {
		t.Errorf("Expected pu 2, got %v", avg.PU)
	}
	if avg.Trust != 5 {
		t.Errorf("Expected trust 5, got %v", avg.Trust)
	}
}

func TestAverageScoresNoResponses(t *testing.T) {
	avg := AverageScores(nil)
	if avg.PEOU != 0 || avg.PU != 0 || avg.Trust != 0 {
		t.Errorf("Expected zero averages, got %+v", avg)
	}
}

func TestConstructOfPrefersPEOU(t *testing.T) {
	c, ok := ConstructOf("peou2")
	if !ok || c.Name != "peou" {
		t.Errorf("Expected peou, got %+v ok=%v", c, ok)
	}
	if _, ok := ConstructOf("feedback"); ok {
		t.Errorf("Expected no construct for feedback")
	}
}

func TestPercentage(t *testing.T) {
	cases := map[float64]int{1: 100, 5: 0, 3: 50, 2: 75, 1.5: 88, 4.5: 13}
	for avg, want := range cases {
		if got := Percentage(avg); got != want {
			t.Errorf("Percentage(%v): expected %d, got %d", avg, want, got)
		}
	}
}

func TestBucketShare(t *testing.T) {
	if got := BucketShare(1, 4); got != 25 {
		t.Errorf("Expected 25, got %v", got)
	}
	if got := BucketShare(0, 0); got != 0 {
		t.Errorf("Expected 0, got %v", got)
	}
}

func TestBuildReport(t *testing.T) {
	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	state := storage.State{
		Participants: 2,
		Conversations: []storage.ConversationRecord{{ID: 1}},
		Surveys: []storage.SurveyRecord{
			survey("a", "2-5", map[string]int{"peou1": 1, "pu1": 1, "trust1": 1}),
			survey("b", "2-5", map[string]int{"peou1": 3, "pu1": 3, "trust1": 5}),
			survey("a", "10+", map[string]int{"peou1": 1, "pu1": 1, "trust1": 3}),
		},
	}
	r := BuildReport(state, now)

	if !r.GeneratedAt.Equal(now) {
		t.Errorf("Expected generatedAt %v, got %v", now, r.GeneratedAt)
	}
	if r.Summary.TotalSurveys != 3 || r.Summary.TotalConversations != 1 || r.Summary.TotalParticipants != 2 {
		t.Errorf("unexpected summary: %+v", r.Summary)
	}
	if r.Summary.SatisfactionRate != "67%" {
		t.Errorf("Expected 67%%, got %s", r.Summary.SatisfactionRate)
	}
	// peou mean 5/3 -> 83%, trust mean 3 -> 50%
	if r.Averages.PerceivedEaseOfUse != "83%" || r.Averages.TrustInAI != "50%" {
		t.Errorf("unexpected averages: %+v", r.Averages)
	}
	// 3 surveys / 2 participants
	if r.DataQuality.ResponseRate != "150%" {
		t.Errorf("Expected response rate 150%%, got %s", r.DataQuality.ResponseRate)
	}
	if r.DataQuality.CompletionRate != "100%" || r.DataQuality.DataIntegrity != DataIntegrityLabel {
		t.Errorf("unexpected data quality: %+v", r.DataQuality)
	}
	if r.ExperienceDistribution[Bucket2To5] != 2 {
		t.Errorf("Expected 2 in 2-5, got %d", r.ExperienceDistribution[Bucket2To5])
	}
}

func TestGenerateReportSummary(t *testing.T) {
	stats := Stats{Participants: 4, TotalChats: 9, SatisfactionRate: 50, TotalSurveys: 5}
	summary := stats.GenerateReportSummary(Averages{PEOU: 1, PU: 3, Trust: 5}, Distribution{Bucket0To2: 2})

	for _, expected := range []string{"Participants: 4", "Conversations: 9", "Satisfaction: 50%", "ease of use: 100%", "usefulness: 50%", "Trust in AI: 0%", "0-2 years: 2"} {
		if !strings.Contains(summary, expected) {
			t.Errorf("Expected summary to contain '%s'. Summary: %s", expected, summary)
		}
	}
}

func TestToJSON(t *testing.T) {
	jsonStr, err := Stats{Participants: 1, SatisfactionRate: 100}.ToJSON()
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if !strings.Contains(jsonStr, `"satisfactionRate": 100`) {
		t.Errorf("Expected JSON to contain satisfactionRate, got: %s", jsonStr)
	}
}
