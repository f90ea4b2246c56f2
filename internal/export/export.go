// Package export turns research records into downloadable documents.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"research-chatter/internal/analytics"
	"research-chatter/internal/storage"
)

type Kind string

const (
	KindSurveys Kind = "surveys"
	KindChats   Kind = "chats"
	KindAll     Kind = "all"
	KindReport  Kind = "report"
)

// Kinds lists every supported export in menu order.
var Kinds = []Kind{KindSurveys, KindChats, KindAll, KindReport}

// ErrUnknownType is returned for an export kind outside Kinds.
var ErrUnknownType = errors.New("unknown export type")

const (
	ContentTypeCSV  = "text/csv;charset=utf-8;"
	ContentTypeJSON = "application/json"
)

// BOM precedes the content of every written file.
const BOM = "\uFEFF"

// Document is a named export ready to be written.
type Document struct {
	Name        string
	ContentType string
	Content     []byte
}

// CSVHeader is the fixed column set of the survey export.
var CSVHeader = []string{"ID", "Faculty_ID", "Experience", "PEOU1", "PEOU2", "PU1", "PU2", "Trust1", "Trust2", "Feedback", "Timestamp"}

var csvScoreColumns = []string{"peou1", "peou2", "pu1", "pu2", "trust1", "trust2"}

// Build renders the export of the given kind from a state snapshot.
func Build(kind Kind, state storage.State, now time.Time) (Document, error) {
	date := now.UTC().Format("2006-01-02")
	switch kind {
	case KindSurveys:
		return Document{
			Name:        fmt.Sprintf("tam_surveys_%s.csv", date),
			ContentType: ContentTypeCSV,
			Content:     SurveysCSV(state.Surveys),
		}, nil
	case KindChats:
		b, err := marshalIndent(nonNil(state.Conversations))
		if err != nil {
			return Document{}, fmt.Errorf("encode conversations: %w", err)
		}
		return Document{Name: fmt.Sprintf("chat_conversations_%s.json", date), ContentType: ContentTypeJSON, Content: b}, nil
	case KindAll:
		b, err := marshalIndent(NewAllData(state, now))
		if err != nil {
			return Document{}, fmt.Errorf("encode full data: %w", err)
		}
		return Document{Name: fmt.Sprintf("research_data_%s.json", date), ContentType: ContentTypeJSON, Content: b}, nil
	case KindReport:
		b, err := marshalIndent(analytics.BuildReport(state, now))
		if err != nil {
			return Document{}, fmt.Errorf("encode report: %w", err)
		}
		return Document{Name: fmt.Sprintf("research_report_%s.json", date), ContentType: ContentTypeJSON, Content: b}, nil
	default:
		return Document{}, fmt.Errorf("%w: %q", ErrUnknownType, kind)
	}
}

// SurveysCSV renders surveys with CRLF line endings. Text columns are always
// quoted with embedded quotes doubled; ID and scores are bare, missing scores empty.
func SurveysCSV(surveys []storage.SurveyRecord) []byte {
	var b strings.Builder
	b.WriteString(strings.Join(CSVHeader, ","))
	b.WriteString("\r\n")
	for _, s := range surveys {
		row := make([]string, 0, len(CSVHeader))
		row = append(row, strconv.FormatInt(s.ID, 10), quote(s.FacultyID), quote(s.Experience))
		for _, col := range csvScoreColumns {
			if v := s.Responses[col]; v != 0 {
				row = append(row, strconv.Itoa(v))
			} else {
				row = append(row, "")
			}
		}
		row = append(row, quote(s.Feedback), quote(s.Timestamp.String()))
		b.WriteString(strings.Join(row, ","))
		b.WriteString("\r\n")
	}
	return []byte(b.String())
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// AllData is the full-data export.
type AllData struct {
	ExportDate    storage.Timestamp            `json:"exportDate"`
	Surveys       []storage.SurveyRecord       `json:"surveys"`
	Conversations []storage.ConversationRecord `json:"conversations"`
	Statistics    analytics.Stats              `json:"statistics"`
	Metadata      Metadata                     `json:"metadata"`
}

type Metadata struct {
	TotalParticipants  int `json:"totalParticipants"`
	TotalConversations int `json:"totalConversations"`
	TotalSurveys       int `json:"totalSurveys"`
}

func NewAllData(state storage.State, now time.Time) AllData {
	return AllData{
		ExportDate:    storage.NewTimestamp(now),
		Surveys:       nonNil(state.Surveys),
		Conversations: nonNil(state.Conversations),
		Statistics:    analytics.Statistics(state),
		Metadata: Metadata{
			TotalParticipants:  state.Participants,
			TotalConversations: len(state.Conversations),
			TotalSurveys:       len(state.Surveys),
		},
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func marshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// WriteFile stores doc under dir with a leading BOM and returns the file path.
func WriteFile(dir string, doc Document) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure export dir: %w", err)
	}
	p := filepath.Join(dir, doc.Name)
	content := make([]byte, 0, len(BOM)+len(doc.Content))
	content = append(content, BOM...)
	content = append(content, doc.Content...)
	if err := os.WriteFile(p, content, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return p, nil
}

// ParseKind validates a user supplied export name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}
