package analytics

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"research-chatter/internal/storage"
)

// PositiveThreshold: a survey whose mean response is at or below it counts as satisfied
// (1 = strongly agree).
const PositiveThreshold = 2.0

// Stats holds the headline dashboard numbers.
type Stats struct {
	Participants     int `json:"participants"`
	TotalChats       int `json:"totalChats"`
	SatisfactionRate int `json:"satisfactionRate"`
	TotalSurveys     int `json:"totalSurveys"`
}

// Bucket is one experience band of the questionnaire.
type Bucket string

const (
	Bucket0To2   Bucket = "0-2"
	Bucket2To5   Bucket = "2-5"
	Bucket5To10  Bucket = "5-10"
	Bucket10Plus Bucket = "10+"
)

// Buckets lists the experience bands in display order.
var Buckets = []Bucket{Bucket0To2, Bucket2To5, Bucket5To10, Bucket10Plus}

// Distribution counts surveys per experience band. Unknown labels are not counted.
type Distribution map[Bucket]int

// MarshalJSON keeps the band order stable in exports.
func (d Distribution) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range Buckets {
		if i > 0 {
			b.WriteByte(',')
		}
		key, _ := json.Marshal(string(k))
		b.Write(key)
		fmt.Fprintf(&b, ":%d", d[k])
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// Total sums the counted surveys.
func (d Distribution) Total() int {
	n := 0
	for _, k := range Buckets {
		n += d[k]
	}
	return n
}

// Construct is a Technology Acceptance Model variable measured by the survey.
type Construct struct {
	Name   string
	Prefix string
}

// Constructs is enumerated in this order when classifying question codes;
// "peou" precedes "pu" so "peou1" is never read as a usefulness item.
var Constructs = []Construct{
	{Name: "peou", Prefix: "peou"},
	{Name: "pu", Prefix: "pu"},
	{Name: "trust", Prefix: "trust"},
}

// Averages holds raw construct means on the 1 (best) .. 5 (worst) scale.
type Averages struct {
	PEOU  float64 `json:"peou"`
	PU    float64 `json:"pu"`
	Trust float64 `json:"trust"`
}

// Statistics computes the headline dashboard numbers.
func Statistics(state storage.State) Stats {
	total := len(state.Surveys)
	rate := 0
	if total > 0 {
		positive := 0
		for _, s := range state.Surveys {
			if mean, ok := surveyMean(s); ok && mean <= PositiveThreshold {
				positive++
			}
		}
		rate = roundHalfUp(float64(positive) / float64(total) * 100)
	}
	return Stats{
		Participants:     state.Participants,
		TotalChats:       len(state.Conversations),
		SatisfactionRate: rate,
		TotalSurveys:     total,
	}
}

func surveyMean(s storage.SurveyRecord) (float64, bool) {
	if len(s.Responses) == 0 {
		return 0, false
	}
	sum := 0
	for _, v := range s.Responses {
		sum += v
	}
	return float64(sum) / float64(len(s.Responses)), true
}

// ExperienceDistribution counts surveys per known experience band.
func ExperienceDistribution(surveys []storage.SurveyRecord) Distribution {
	d := make(Distribution, len(Buckets))
	for _, b := range Buckets {
		d[b] = 0
	}
	for _, s := range surveys {
		b := Bucket(s.Experience)
		if _, ok := d[b]; ok {
			d[b]++
		}
	}
	return d
}

// BucketShare is the chart percentage of one band: count / max(1, surveys) * 100.
func BucketShare(count, surveys int) float64 {
	return float64(count) / float64(max(1, surveys)) * 100
}

// ConstructOf returns the construct a question code belongs to.
func ConstructOf(code string) (Construct, bool) {
	for _, c := range Constructs {
		if strings.HasPrefix(code, c.Prefix) {
			return c, true
		}
	}
	return Construct{}, false
}

// AverageScores averages every response of each construct across all surveys.
// A construct without responses averages to 0.
func AverageScores(surveys []storage.SurveyRecord) Averages {
	type acc struct {
		total int
		count int
	}
	sums := make(map[string]*acc, len(Constructs))
	for _, c := range Constructs {
		sums[c.Name] = &acc{}
	}
	for _, s := range surveys {
		for code, v := range s.Responses {
			c, ok := ConstructOf(code)
			if !ok {
				continue
			}
			sums[c.Name].total += v
			sums[c.Name].count++
		}
	}
	mean := func(name string) float64 {
		a := sums[name]
		if a.count == 0 {
			return 0
		}
		return float64(a.total) / float64(a.count)
	}
	return Averages{PEOU: mean("peou"), PU: mean("pu"), Trust: mean("trust")}
}

// Percentage maps a 1..5 mean onto 0..100 where 1 becomes 100.
func Percentage(avg float64) int {
	return roundHalfUp((1 - (avg-1)/4) * 100)
}

// roundHalfUp rounds .5 towards +Inf, the way the dashboard always displayed values.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// GenerateReportSummary renders a plain text summary for the dashboard and the scheduler log.
func (s Stats) GenerateReportSummary(avg Averages, dist Distribution) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Research summary:

Overall activity:
- Participants: %d
- Surveys: %d
- Conversations: %d
- Satisfaction: %d%%

`, s.Participants, s.TotalSurveys, s.TotalChats, s.SatisfactionRate)

	if s.TotalSurveys > 0 {
		b.WriteString("Acceptance variables:\n")
		fmt.Fprintf(&b, "- Perceived ease of use: %d%%\n", Percentage(avg.PEOU))
		fmt.Fprintf(&b, "- Perceived usefulness: %d%%\n", Percentage(avg.PU))
		fmt.Fprintf(&b, "- Trust in AI: %d%%\n", Percentage(avg.Trust))
		b.WriteString("\n")
	}

	b.WriteString("Teaching experience:\n")
	for _, k := range Buckets {
		fmt.Fprintf(&b, "- %s years: %d\n", k, dist[k])
	}
	return b.String()
}

// ToJSON encodes the statistics as indented JSON.
func (s Stats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Report is the statistical report export.
type Report struct {
	GeneratedAt            storage.Timestamp `json:"generatedAt"`
	Summary                ReportSummary     `json:"summary"`
	Averages               ReportAverages    `json:"averages"`
	ExperienceDistribution Distribution      `json:"experienceDistribution"`
	DataQuality            ReportDataQuality `json:"dataQuality"`
}

type ReportSummary struct {
	TotalParticipants  int    `json:"totalParticipants"`
	TotalSurveys       int    `json:"totalSurveys"`
	TotalConversations int    `json:"totalConversations"`
	SatisfactionRate   string `json:"satisfactionRate"`
}

type ReportAverages struct {
	PerceivedEaseOfUse  string `json:"perceivedEaseOfUse"`
	PerceivedUsefulness string `json:"perceivedUsefulness"`
	TrustInAI           string `json:"trustInAI"`
}

type ReportDataQuality struct {
	CompletionRate string `json:"completionRate"`
	ResponseRate   string `json:"responseRate"`
	DataIntegrity  string `json:"dataIntegrity"`
}

// DataIntegrityLabel is the fixed integrity verdict printed in reports ("excellent").
const DataIntegrityLabel = "ممتازة"

// BuildReport assembles the report export from the current state.
func BuildReport(state storage.State, now time.Time) Report {
	stats := Statistics(state)
	avg := AverageScores(state.Surveys)
	return Report{
		GeneratedAt: storage.NewTimestamp(now),
		Summary: ReportSummary{
			TotalParticipants:  stats.Participants,
			TotalSurveys:       stats.TotalSurveys,
			TotalConversations: stats.TotalChats,
			SatisfactionRate:   percent(stats.SatisfactionRate),
		},
		Averages: ReportAverages{
			PerceivedEaseOfUse:  percent(Percentage(avg.PEOU)),
			PerceivedUsefulness: percent(Percentage(avg.PU)),
			TrustInAI:           percent(Percentage(avg.Trust)),
		},
		ExperienceDistribution: ExperienceDistribution(state.Surveys),
		DataQuality: ReportDataQuality{
			CompletionRate: "100%",
			ResponseRate:   percent(roundHalfUp(float64(stats.TotalSurveys) / float64(max(stats.Participants, 1)) * 100)),
			DataIntegrity:  DataIntegrityLabel,
		},
	}
}

func percent(v int) string {
	return fmt.Sprintf("%d%%", v)
}
