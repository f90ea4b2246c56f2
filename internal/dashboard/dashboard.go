// Package dashboard renders the research dashboard and assistant replies for a terminal.
package dashboard

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"research-chatter/internal/research"
)

// NoDataMessage replaces a chart that has nothing to show.
const NoDataMessage = "لا توجد بيانات كافية"

const defaultBarWidth = 30

var (
	Primary = lipgloss.Color("#2c3e50")
	Muted   = lipgloss.Color("#666666")
	Border  = lipgloss.Color("#dce0e5")

	// Variable chart colours, one per acceptance construct.
	ColorPEOU  = lipgloss.Color("#3498db")
	ColorPU    = lipgloss.Color("#2ecc71")
	ColorTrust = lipgloss.Color("#e74c3c")
	ColorBars  = lipgloss.Color("#667eea")
)

var variableColors = map[string]lipgloss.Color{
	"peou":  ColorPEOU,
	"pu":    ColorPU,
	"trust": ColorTrust,
}

// Styles groups the lipgloss styles used by the renderer.
type Styles struct {
	Title     lipgloss.Style
	Card      lipgloss.Style
	CardValue lipgloss.Style
	CardLabel lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Empty     lipgloss.Style
}

// DefaultStyles returns the dashboard styles.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(Primary).MarginTop(1),
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 2).
			Align(lipgloss.Center),
		CardValue: lipgloss.NewStyle().Bold(true).Foreground(Primary),
		CardLabel: lipgloss.NewStyle().Foreground(Muted),
		Label:     lipgloss.NewStyle().Width(28),
		Value:     lipgloss.NewStyle().Foreground(Muted),
		Empty:     lipgloss.NewStyle().Foreground(Muted).Italic(true),
	}
}

// Renderer turns a research.View into terminal text.
type Renderer struct {
	styles   Styles
	barWidth int
	markdown *glamour.TermRenderer
}

type Option func(*Renderer)

// WithBarWidth sets the width of a full (100%) bar in cells.
func WithBarWidth(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.barWidth = n
		}
	}
}

// WithStyles overrides the default styles.
func WithStyles(s Styles) Option { return func(r *Renderer) { r.styles = s } }

// WithPlainReplies disables markdown rendering of replies.
func WithPlainReplies() Option { return func(r *Renderer) { r.markdown = nil } }

func New(opts ...Option) *Renderer {
	r := &Renderer{styles: DefaultStyles(), barWidth: defaultBarWidth}
	r.markdown, _ = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	for _, o := range opts {
		o(r)
	}
	return r
}

// Render draws the stat cards followed by both charts.
func (r *Renderer) Render(v research.View) string {
	var b strings.Builder
	b.WriteString(r.Cards(v))
	b.WriteString("\n")
	b.WriteString(r.styles.Title.Render("توزيع الخبرة التدريسية"))
	b.WriteString("\n")
	b.WriteString(r.ExperienceChart(v))
	b.WriteString("\n")
	b.WriteString(r.styles.Title.Render("متغيرات نموذج قبول التكنولوجيا"))
	b.WriteString("\n")
	b.WriteString(r.VariablesChart(v))
	return b.String()
}

// Cards renders the headline numbers side by side.
func (r *Renderer) Cards(v research.View) string {
	card := func(value, label string) string {
		return r.styles.Card.Render(r.styles.CardValue.Render(value) + "\n" + r.styles.CardLabel.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card(strconv.Itoa(v.Stats.Participants), "أعضاء هيئة التدريس"),
		card(strconv.Itoa(v.Stats.TotalChats), "المحادثات"),
		card(strconv.Itoa(v.Stats.SatisfactionRate)+"%", "معدل الرضا"),
		card(strconv.Itoa(v.Stats.TotalSurveys), "الاستبيانات"),
	)
}

// ExperienceChart renders one bar per experience band, or NoDataMessage.
func (r *Renderer) ExperienceChart(v research.View) string {
	if !v.HasDistribution {
		return r.styles.Empty.Render(NoDataMessage)
	}
	fill := lipgloss.NewStyle().Foreground(ColorBars)
	lines := make([]string, 0, len(v.Distribution))
	for _, d := range v.Distribution {
		lines = append(lines, r.styles.Label.Render(string(d.Bucket)+" سنوات")+
			fill.Render(r.bar(d.Share))+" "+
			r.styles.Value.Render(fmt.Sprintf("%d (%d%%)", d.Count, int(math.Round(d.Share)))))
	}
	return strings.Join(lines, "\n")
}

// VariablesChart renders the acceptance constructs as percentage bars, or NoDataMessage.
func (r *Renderer) VariablesChart(v research.View) string {
	if !v.HasSurveys || len(v.Variables) == 0 {
		return r.styles.Empty.Render(NoDataMessage)
	}
	lines := make([]string, 0, len(v.Variables))
	for _, vv := range v.Variables {
		fill := lipgloss.NewStyle().Foreground(variableColors[vv.Name])
		lines = append(lines, r.styles.Label.Render(vv.Label)+
			fill.Render(r.bar(float64(vv.Percent)))+" "+
			r.styles.Value.Render(fmt.Sprintf("%d%%", vv.Percent)))
	}
	return strings.Join(lines, "\n")
}

// bar draws a filled track; the share is clamped to 0..100 for drawing only.
func (r *Renderer) bar(share float64) string {
	share = math.Max(0, math.Min(100, share))
	n := int(math.Round(share / 100 * float64(r.barWidth)))
	return strings.Repeat("█", n) + strings.Repeat("░", r.barWidth-n)
}

// Reply renders a knowledge base answer as markdown, falling back to the raw text.
func (r *Renderer) Reply(body string) string {
	if r.markdown == nil {
		return body
	}
	out, err := r.markdown.Render(body)
	if err != nil {
		return body
	}
	return out
}
