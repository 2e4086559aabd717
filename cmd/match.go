package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hirectl/internal/hiring"
	"github.com/spigell/hirectl/internal/ranking"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match candidates to jobs and review the rankings",
}

var matchRunCmd = &cobra.Command{
	Use:   "run <job id>",
	Short: "Run matching for a job and show the refreshed ranking",
	Args:  cobra.ExactArgs(1),
	RunE: recruiterOnly(func(ctx context.Context, a *App, _ *cobra.Command, args []string) error {
		jobID, err := parseID("job id", args[0])
		if err != nil {
			return err
		}
		return runMatch(ctx, a, a.Orchestrator(), jobID)
	}),
}

var matchRankingCmd = &cobra.Command{
	Use:   "ranking <job id>",
	Short: "Show the ranking of candidates for a job",
	Args:  cobra.ExactArgs(1),
	RunE: recruiterOnly(func(ctx context.Context, a *App, _ *cobra.Command, args []string) error {
		jobID, err := parseID("job id", args[0])
		if err != nil {
			return err
		}
		return runRanking(ctx, a, a.Orchestrator(), jobID)
	}),
}

var matchNotifyCmd = &cobra.Command{
	Use:   "notify <job id> <candidate id>",
	Short: "Send a candidate the assessment link for a job",
	Args:  cobra.ExactArgs(2),
	RunE: recruiterOnly(func(ctx context.Context, a *App, _ *cobra.Command, args []string) error {
		jobID, err := parseID("job id", args[0])
		if err != nil {
			return err
		}
		candidateID, err := parseID("candidate id", args[1])
		if err != nil {
			return err
		}

		if err := a.Orchestrator().DispatchAssessment(ctx, jobID, candidateID); err != nil {
			return err
		}

		fmt.Fprintf(a.Out, "Assessment sent to candidate %d.\n", candidateID)
		return nil
	}),
}

var matchTopCmd = &cobra.Command{
	Use:   "top <job id>",
	Short: "Show the best candidate for a job",
	Args:  cobra.ExactArgs(1),
	RunE: recruiterOnly(func(ctx context.Context, a *App, _ *cobra.Command, args []string) error {
		jobID, err := parseID("job id", args[0])
		if err != nil {
			return err
		}

		top, err := a.Orchestrator().TopCandidate(ctx, jobID)
		if err != nil {
			return err
		}

		printRanking(a.Out, []hiring.RankingEntry{*top})
		return nil
	}),
}

var matchWatchCmd = &cobra.Command{
	Use:   "watch <job id>",
	Short: "Refresh the ranking of a job periodically",
	Args:  cobra.ExactArgs(1),
	RunE: recruiterOnly(func(ctx context.Context, a *App, _ *cobra.Command, args []string) error {
		jobID, err := parseID("job id", args[0])
		if err != nil {
			return err
		}
		return runWatch(ctx, a, jobID)
	}),
}

func init() {
	rootCmd.AddCommand(matchCmd)
	matchCmd.AddCommand(matchRunCmd, matchRankingCmd, matchNotifyCmd, matchTopCmd, matchWatchCmd)

	matchWatchCmd.Flags().Duration("interval", 30*time.Second, "refresh interval")
	matchWatchCmd.Flags().String("metrics-addr", "", "serve prometheus metrics on this address, e.g. :9090")

	viper.BindPFlag("watch.interval", matchWatchCmd.Flags().Lookup("interval"))
	viper.BindPFlag("metrics.addr", matchWatchCmd.Flags().Lookup("metrics-addr"))
}

func runMatch(ctx context.Context, a *App, o *ranking.Orchestrator, jobID int) error {
	done := o.TriggerMatch(ctx, jobID)
	if o.IsMatching(jobID) {
		fmt.Fprintf(a.Out, "Matching job %d...\n", jobID)
	}

	if err := <-done; err != nil {
		return err
	}

	printRanking(a.Out, o.Rankings())
	return nil
}

func runRanking(ctx context.Context, a *App, o *ranking.Orchestrator, jobID int) error {
	entries, err := o.FetchRanking(ctx, jobID)
	if err != nil {
		return err
	}

	printRanking(a.Out, entries)
	return nil
}

func runWatch(ctx context.Context, a *App, jobID int) error {
	if addr := a.Config.Metrics.Addr; addr != "" {
		srv := &http.Server{Addr: addr, Handler: metricsRouter(a), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.Logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
		defer srv.Shutdown(context.Background())

		a.Logger.Info("serving metrics", zap.String("addr", addr))
	}

	interval := a.Config.Watch.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	a.Orchestrator().Watch(ctx, jobID, interval, func(entries []hiring.RankingEntry, err error) {
		fmt.Fprintf(a.Out, "\n%s job %d\n", time.Now().Format(time.TimeOnly), jobID)
		if err != nil {
			fmt.Fprintln(a.Out, UserMessage(err))
			return
		}
		printRanking(a.Out, entries)
	})

	return nil
}

func metricsRouter(a *App) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", a.Metrics.Handler())
	return r
}

func printRanking(out io.Writer, entries []hiring.RankingEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No ranked candidates yet.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tCANDIDATE\tNAME\tMATCH\tQUIZ\tFINAL")
	for _, e := range entries {
		quiz := fmt.Sprintf("%.1f", e.QuizScore)
		if ranking.NeedsAssessment(e) {
			quiz = "pending"
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%.1f\t%s\t%.1f\n", e.Rank, e.CandidateID, e.CandidateName, e.MatchScore, quiz, e.FinalScore)
	}
	_ = w.Flush()
}
