package research

import (
	"research-chatter/internal/analytics"
)

// BucketView is one bar of the experience chart.
type BucketView struct {
	Bucket analytics.Bucket
	Count  int
	Share  float64
}

// VariableView is one bar of the acceptance variables chart.
type VariableView struct {
	Name    string
	Label   string
	Percent int
}

// View is everything the dashboard displays.
type View struct {
	Stats        analytics.Stats
	Averages     analytics.Averages
	HasSurveys   bool
	Variables    []VariableView
	Distribution []BucketView
	// HasDistribution is false when every bucket is empty.
	HasDistribution bool
	Summary         string
}

var variableLabels = map[string]string{
	"peou":  "سهولة الاستخدام",
	"pu":    "إدراك الفائدة",
	"trust": "الثقة في الذكاء الاصطناعي",
}

// Dashboard computes the dashboard view from the current records.
func (a *App) Dashboard() View {
	snap := a.store.Snapshot()
	stats := analytics.Statistics(snap)
	avg := analytics.AverageScores(snap.Surveys)
	dist := analytics.ExperienceDistribution(snap.Surveys)

	v := View{
		Stats:      stats,
		Averages:   avg,
		HasSurveys: stats.TotalSurveys > 0,
		Summary:    stats.GenerateReportSummary(avg, dist),
	}
	if v.HasSurveys {
		raw := map[string]float64{"peou": avg.PEOU, "pu": avg.PU, "trust": avg.Trust}
		for _, c := range analytics.Constructs {
			v.Variables = append(v.Variables, VariableView{
				Name:    c.Name,
				Label:   variableLabels[c.Name],
				Percent: analytics.Percentage(raw[c.Name]),
			})
		}
	}
	for _, b := range analytics.Buckets {
		n := dist[b]
		if n > 0 {
			v.HasDistribution = true
		}
		v.Distribution = append(v.Distribution, BucketView{
			Bucket: b,
			Count:  n,
			Share:  analytics.BucketShare(n, len(snap.Surveys)),
		})
	}
	return v
}
