package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-chatter/internal/assistant"
	"research-chatter/internal/research"
	"research-chatter/internal/storage"
)

func newTestServer(t *testing.T) (*ResearchMCPServer, string) {
	t.Helper()
	store := storage.NewStore(storage.NewMemorySlot(), storage.NewMemorySlot())
	require.NoError(t, store.Load(context.Background()))
	kb := assistant.MustDefault()
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	app := research.New(store, assistant.New(kb, assistant.WithDelay(0, 0)), kb,
		research.WithClock(func() time.Time { return now }))
	dir := filepath.Join(t.TempDir(), "exports")
	return NewResearchMCPServer(app, dir, nil), dir
}

func text(t *testing.T, res *mcp.CallToolResultFor[any]) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestAskAssistant(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	res, err := s.AskAssistant(ctx, nil, &mcp.CallToolParamsFor[AskParams]{Arguments: AskParams{Message: "تصميم المقرر"}})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "تصميم", res.Meta["topic"])

	res, err = s.AskAssistant(ctx, nil, &mcp.CallToolParamsFor[AskParams]{Arguments: AskParams{Message: "  "}})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestSubmitSurveyAndStatistics(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	res, err := s.SubmitSurvey(ctx, nil, &mcp.CallToolParamsFor[SurveyParams]{Arguments: SurveyParams{
		FacultyID: "f1", Experience: "0-2", Responses: map[string]int{"peou1": 1, "pu1": 2},
	}})
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = s.SubmitSurvey(ctx, nil, &mcp.CallToolParamsFor[SurveyParams]{Arguments: SurveyParams{
		Responses: map[string]int{"trust1": 0},
	}})
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.GetStatistics(ctx, nil, &mcp.CallToolParamsFor[StatisticsParams]{})
	require.NoError(t, err)
	assert.Contains(t, text(t, res), `"satisfactionRate": 100`)
	assert.Equal(t, 1, res.Meta["total_surveys"])
}

func TestExportData(t *testing.T) {
	s, dir := newTestServer(t)
	ctx := context.Background()

	res, err := s.ExportData(ctx, nil, &mcp.CallToolParamsFor[ExportParams]{Arguments: ExportParams{Type: "pdf"}})
	require.NoError(t, err, "unknown types are tool errors, not transport errors")
	assert.True(t, res.IsError)
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr), "nothing written for an unknown type")

	res, err = s.ExportData(ctx, nil, &mcp.CallToolParamsFor[ExportParams]{Arguments: ExportParams{Type: "chats"}})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.FileExists(t, filepath.Join(dir, "chat_conversations_2025-06-01.json"))
}

func TestGenerateReport(t *testing.T) {
	s, dir := newTestServer(t)

	res, err := s.GenerateReport(context.Background(), nil, &mcp.CallToolParamsFor[ReportParams]{})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, text(t, res), "Participants: 0")
	assert.FileExists(t, filepath.Join(dir, "research_report_2025-06-01.json"))
}
