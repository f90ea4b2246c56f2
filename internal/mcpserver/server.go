// Package mcpserver exposes the research app as MCP tools.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"research-chatter/internal/analytics"
	"research-chatter/internal/export"
	"research-chatter/internal/logging"
	"research-chatter/internal/research"
	"research-chatter/internal/storage"
)

const (
	ServerName    = "research-chatter-mcp"
	ServerVersion = "1.0.0"
)

// AskParams are the ask_assistant arguments.
type AskParams struct {
	Message string `json:"message" mcp:"question for the e-learning assistant (max 500 characters)"`
}

// SurveyParams are the submit_survey arguments.
type SurveyParams struct {
	FacultyID  string         `json:"faculty_id,omitempty" mcp:"faculty member id; blank ids are stored as anonymous"`
	Experience string         `json:"experience" mcp:"teaching experience band: 0-2, 2-5, 5-10 or 10+"`
	Responses  map[string]int `json:"responses" mcp:"likert answers keyed by question code (peou1, pu1, trust1, ...), 1 = strongly agree .. 5 = strongly disagree"`
	Feedback   string         `json:"feedback,omitempty" mcp:"free text feedback"`
}

type StatisticsParams struct{}

// ExportParams are the export_data arguments.
type ExportParams struct {
	Type string `json:"type" mcp:"export type: surveys, chats, all or report"`
}

type ReportParams struct{}

// ResearchMCPServer serves the research tools.
type ResearchMCPServer struct {
	app       *research.App
	exportDir string
	logger    *zap.Logger
}

func NewResearchMCPServer(app *research.App, exportDir string, logger *zap.Logger) *ResearchMCPServer {
	return &ResearchMCPServer{app: app, exportDir: exportDir, logger: logging.OrNop(logger)}
}

func errorResult(format string, a ...any) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, a...)},
		},
	}
}

func textResult(text string, meta map[string]interface{}) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		Meta: meta,
	}
}

// AskAssistant answers a chat message and stores the exchange.
func (s *ResearchMCPServer) AskAssistant(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[AskParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments

	s.logger.Info("mcp ask_assistant", zap.Int("length", len(args.Message)))

	ex, err := s.app.SendMessage(ctx, args.Message)
	if err != nil {
		return errorResult("❌ Invalid message: %v", err), nil
	}
	if ex.Failed {
		return errorResult("%s", ex.Reply.Body), nil
	}

	return textResult(ex.Reply.Body, map[string]interface{}{
		"topic":      ex.Reply.TopicKey,
		"confidence": ex.Reply.Confidence,
		"id":         ex.Record.ID,
		"session":    ex.Record.Session,
	}), nil
}

// SubmitSurvey stores a questionnaire.
func (s *ResearchMCPServer) SubmitSurvey(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[SurveyParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments

	rec, err := s.app.SubmitSurvey(ctx, storage.SurveyInput{
		FacultyID:  args.FacultyID,
		Experience: args.Experience,
		Responses:  args.Responses,
		Feedback:   args.Feedback,
	})
	if err != nil {
		return errorResult("❌ Survey rejected: %v", err), nil
	}

	return textResult(fmt.Sprintf("✅ Survey %d stored for %s", rec.ID, rec.FacultyID), map[string]interface{}{
		"id":         rec.ID,
		"faculty_id": rec.FacultyID,
		"responses":  len(rec.Responses),
		"success":    true,
	}), nil
}

// GetStatistics returns the dashboard numbers as JSON.
func (s *ResearchMCPServer) GetStatistics(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[StatisticsParams]) (*mcp.CallToolResultFor[any], error) {
	stats := s.app.Statistics()
	text, err := stats.ToJSON()
	if err != nil {
		return errorResult("❌ Failed to encode statistics: %v", err), nil
	}
	return textResult(text, map[string]interface{}{
		"participants":      stats.Participants,
		"total_chats":       stats.TotalChats,
		"satisfaction_rate": stats.SatisfactionRate,
		"total_surveys":     stats.TotalSurveys,
	}), nil
}

// ExportData writes one export file to the export directory.
func (s *ResearchMCPServer) ExportData(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[ExportParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments

	kind, err := export.ParseKind(args.Type)
	if err != nil {
		return errorResult("❌ نوع تصدير غير معروف: %q", args.Type), nil
	}
	path, err := s.app.ExportTo(s.exportDir, kind)
	if err != nil {
		return errorResult("❌ Export failed: %v", err), nil
	}

	return textResult(fmt.Sprintf("✅ Exported %s to %s", kind, path), map[string]interface{}{
		"type":    string(kind),
		"path":    path,
		"success": true,
	}), nil
}

// GenerateReport writes the report export and returns the text summary.
func (s *ResearchMCPServer) GenerateReport(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[ReportParams]) (*mcp.CallToolResultFor[any], error) {
	path, err := s.app.ExportTo(s.exportDir, export.KindReport)
	if err != nil {
		return errorResult("❌ Report failed: %v", err), nil
	}

	snap := s.app.Snapshot()
	stats := analytics.Statistics(snap)
	summary := stats.GenerateReportSummary(analytics.AverageScores(snap.Surveys), analytics.ExperienceDistribution(snap.Surveys))

	return textResult(summary+"\nReport: "+path, map[string]interface{}{
		"path":    path,
		"success": true,
	}), nil
}

// Server builds the MCP server with every research tool registered.
func (s *ResearchMCPServer) Server() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_assistant",
		Description: "Asks the e-learning assistant a question and records the conversation",
	}, s.AskAssistant)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "submit_survey",
		Description: "Submits a technology acceptance questionnaire",
	}, s.SubmitSurvey)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_statistics",
		Description: "Returns participants, conversations, surveys and satisfaction rate",
	}, s.GetStatistics)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "export_data",
		Description: "Exports surveys (CSV), chats, all data or the report (JSON) to the export directory",
	}, s.ExportData)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_report",
		Description: "Writes the statistical report and returns its summary",
	}, s.GenerateReport)

	return server
}

// Run serves the tools over the given transport until ctx is done or the peer disconnects.
func (s *ResearchMCPServer) Run(ctx context.Context, transport mcp.Transport) error {
	s.logger.Info("starting mcp server",
		zap.String("name", ServerName),
		zap.String("export_dir", s.exportDir))
	if err := s.Server().Run(ctx, transport); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
