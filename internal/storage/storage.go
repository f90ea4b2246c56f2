package storage

import (
	"context"
)

// ConversationRecord is one chat exchange: the user's message and the assistant's reply.
// Records are appended in chronological order and never modified.
type ConversationRecord struct {
	ID        int64     `json:"id"`
	User      string    `json:"user"`
	Bot       string    `json:"bot"`
	Timestamp Timestamp `json:"timestamp"`
	Session   string    `json:"session"`
}

// SurveyRecord is one submitted acceptance questionnaire.
// Responses maps question codes (peou1, pu2, trust1, ...) to Likert scores,
// 1 meaning "strongly agree" and 5 "strongly disagree".
type SurveyRecord struct {
	ID         int64          `json:"id"`
	FacultyID  string         `json:"facultyId"`
	Experience string         `json:"experience"`
	Responses  map[string]int `json:"responses"`
	Feedback   string         `json:"feedback"`
	Timestamp  Timestamp      `json:"timestamp"`
}

// SurveyInput carries the fields a participant fills in; the store assigns the rest.
type SurveyInput struct {
	FacultyID  string
	Experience string
	Responses  map[string]int
	Feedback   string
}

// State is the whole persisted blob. Participants is derived from Surveys and
// recomputed on every survey append and on load.
type State struct {
	Participants  int                  `json:"participants"`
	Chats         int                  `json:"chats"`
	Satisfaction  int                  `json:"satisfaction"`
	Conversations []ConversationRecord `json:"conversations"`
	Surveys       []SurveyRecord       `json:"surveys"`
}

// Slot is a named string key/value persistence area, the analogue of a browser
// storage area. Get reports ok=false for a missing key.
// Implementations must be safe for concurrent use.
type Slot interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Clone returns a deep copy so readers cannot mutate store internals.
func (s State) Clone() State {
	out := State{
		Participants:  s.Participants,
		Chats:         s.Chats,
		Satisfaction:  s.Satisfaction,
		Conversations: make([]ConversationRecord, len(s.Conversations)),
		Surveys:       make([]SurveyRecord, len(s.Surveys)),
	}
	copy(out.Conversations, s.Conversations)
	for i, sv := range s.Surveys {
		sv.Responses = cloneResponses(sv.Responses)
		out.Surveys[i] = sv
	}
	return out
}

func cloneResponses(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// distinctFaculty counts distinct facultyId values across surveys.
func distinctFaculty(surveys []SurveyRecord) int {
	seen := make(map[string]struct{}, len(surveys))
	for _, s := range surveys {
		seen[s.FacultyID] = struct{}{}
	}
	return len(seen)
}
