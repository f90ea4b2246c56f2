package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"research-chatter/internal/analytics"
	"research-chatter/internal/dashboard"
	"research-chatter/internal/export"
	"research-chatter/internal/history"
	"research-chatter/internal/mcpserver"
	"research-chatter/internal/research"
	"research-chatter/internal/scheduler"
	"research-chatter/internal/storage"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant interactively (/clear, /exit)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, closeFn, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		r := dashboard.New()
		out := cmd.OutOrStdout()
		for _, m := range app.Transcript(ctx) {
			fmt.Fprintln(out, r.Reply(m.Content))
		}

		scanner := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(out, "> ")
			if !scanner.Scan() {
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			switch line {
			case "":
				continue
			case "/exit", "/quit":
				return nil
			case "/clear":
				app.ClearChat(ctx)
				fmt.Fprintln(out, r.Reply(history.Greeting))
				continue
			}

			ex, err := app.SendMessage(ctx, line)
			if err != nil {
				fmt.Fprintf(out, "⚠️ %v\n", err)
				continue
			}
			fmt.Fprintln(out, r.Reply(ex.Reply.Body))
			if ctx.Err() != nil {
				return nil
			}
		}
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Ask the assistant a single question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, closeFn, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		ex, err := app.SendMessage(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), dashboard.New().Reply(ex.Reply.Body))
		if ex.Failed {
			return errors.New("assistant failed to answer")
		}
		return nil
	},
}

var (
	surveyFacultyID  string
	surveyExperience string
	surveyFeedback   string
	surveyResponses  map[string]int
)

var surveyCmd = &cobra.Command{
	Use:   "survey",
	Short: "Submit a technology acceptance questionnaire",
	Example: `  research survey --faculty-id dr_ali --experience 5-10 \
    --response peou1=1 --response peou2=2 --response pu1=1 --response trust1=3 \
    --feedback "useful for quizzes"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, closeFn, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		rec, err := app.SubmitSurvey(cmd.Context(), storage.SurveyInput{
			FacultyID:  surveyFacultyID,
			Experience: surveyExperience,
			Responses:  surveyResponses,
			Feedback:   surveyFeedback,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ تم حفظ الاستبيان (%d) للمشارك %s\n", rec.ID, rec.FacultyID)
		return nil
	},
}

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:     "stats",
	Aliases: []string{"dashboard"},
	Short:   "Show the research dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, closeFn, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		if statsJSON {
			s, err := app.Statistics().ToJSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), dashboard.New().Render(app.Dashboard()))
		return nil
	},
}

var exportDir string

var exportCmd = &cobra.Command{
	Use:       "export <surveys|chats|all|report>",
	Short:     "Export research data to a file",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"surveys", "chats", "all", "report"},
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := export.ParseKind(args[0])
		if err != nil {
			return err
		}
		app, closeFn, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		p, err := app.ExportTo(targetExportDir(), kind)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s\n", p)
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write the statistical report and print its summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, closeFn, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		p, err := writeReport(app)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), app.Dashboard().Summary)
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s\n", p)
		return nil
	},
}

var resetConfirmed bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every stored conversation and survey",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetConfirmed {
			return errors.New("refusing to delete research data without --yes")
		}
		ctx := cmd.Context()
		slot, closeSlot, err := research.OpenSlot(cfg)
		if err != nil {
			return err
		}
		defer closeSlot()

		store := storage.NewStore(slot, storage.NewMemorySlot(),
			storage.WithLogger(logger.Named("storage")),
			storage.WithKeys(cfg.StateKey, cfg.SessionKey))
		if err := store.Reset(ctx); err != nil {
			return err
		}
		logger.Info("research data reset", zap.String("backend", string(cfg.StoreBackend)))
		fmt.Fprintln(cmd.OutOrStdout(), "✅ تم حذف جميع البيانات")
		return nil
	},
}

var serveMCP bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduled report job, optionally with the MCP server on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, closeFn, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		sched := scheduler.New(cfg.ReportCron, logger.Named("scheduler"))
		sched.SetReportFunction(func(context.Context) (string, error) {
			p, err := writeReport(app)
			if err == nil {
				snap := app.Snapshot()
				logger.Info(analytics.Statistics(snap).GenerateReportSummary(
					analytics.AverageScores(snap.Surveys), analytics.ExperienceDistribution(snap.Surveys)))
			}
			return p, err
		})
		if err := sched.Start(); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer sched.Stop()

		g, gctx := errgroup.WithContext(ctx)
		if serveMCP {
			srv := mcpserver.NewResearchMCPServer(app, targetExportDir(), logger.Named("mcp"))
			g.Go(func() error {
				// the peer closing stdin ends the process
				defer stop()
				return srv.Run(gctx, mcp.NewStdioTransport())
			})
		}
		g.Go(func() error {
			<-gctx.Done()
			return nil
		})
		logger.Info("serving", zap.Bool("mcp", serveMCP), zap.Time("next_report", sched.Next()))
		return g.Wait()
	},
}

func targetExportDir() string {
	if exportDir != "" {
		return exportDir
	}
	return cfg.ExportDir
}

func writeReport(app *research.App) (string, error) {
	return app.ExportTo(targetExportDir(), export.KindReport)
}

func init() {
	surveyCmd.Flags().StringVar(&surveyFacultyID, "faculty-id", "", "Faculty member id (blank is stored as anonymous)")
	surveyCmd.Flags().StringVar(&surveyExperience, "experience", "", "Teaching experience: 0-2, 2-5, 5-10 or 10+")
	surveyCmd.Flags().StringVar(&surveyFeedback, "feedback", "", "Free text feedback")
	surveyCmd.Flags().StringToIntVar(&surveyResponses, "response", nil, "Likert answer code=score, 1 (agree) .. 5 (disagree); repeatable")
	surveyCmd.MarkFlagRequired("experience")

	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print the statistics as JSON")

	for _, c := range []*cobra.Command{exportCmd, reportCmd, serveCmd} {
		c.Flags().StringVar(&exportDir, "dir", "", "Export directory (default RESEARCH_EXPORT_DIR)")
	}

	resetCmd.Flags().BoolVar(&resetConfirmed, "yes", false, "Confirm deletion")

	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "Also serve the MCP tools on stdin/stdout")
}
