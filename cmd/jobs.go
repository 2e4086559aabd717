package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/hirectl/internal/filtering"
	"github.com/spigell/hirectl/internal/hiring"
	"github.com/spigell/hirectl/internal/session"
)

const promptBack = "back"

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List, create and apply to jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs; candidates see their match score and applications",
	RunE: anyRole(func(ctx context.Context, a *App, cmd *cobra.Command, _ []string) error {
		var opts jobsListOptions
		opts.includeApplied, _ = cmd.Flags().GetBool("include-applied")
		opts.minScore, _ = cmd.Flags().GetFloat64("min-score")
		opts.keywords, _ = cmd.Flags().GetStringSlice("keyword")

		return runJobsList(ctx, a, opts)
	}),
}

var jobsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Post a new job",
	RunE: recruiterOnly(func(ctx context.Context, a *App, cmd *cobra.Command, _ []string) error {
		var job hiring.NewJob
		var err error

		if job.Title, err = flagOrPrompt(a, cmd, "title", "Title"); err != nil {
			return err
		}
		if job.Description, err = flagOrPrompt(a, cmd, "description", "Description"); err != nil {
			return err
		}
		if job.Requirements, err = flagOrPrompt(a, cmd, "requirements", "Requirements"); err != nil {
			return err
		}

		created, err := a.Client.CreateJob(ctx, job)
		if err != nil {
			return err
		}

		fmt.Fprintf(a.Out, "Created job %d: %s\n", created.ID, created.Title)
		return nil
	}),
}

var jobsApplyCmd = &cobra.Command{
	Use:   "apply [job id]",
	Short: "Apply to a job with a resume file; without a job id pick jobs interactively",
	Args:  cobra.MaximumNArgs(1),
	RunE: candidateOnly(func(ctx context.Context, a *App, cmd *cobra.Command, args []string) error {
		resume, _ := cmd.Flags().GetString("resume")
		if len(args) == 0 {
			return runManualApply(ctx, a, resume)
		}

		jobID, err := parseID("job id", args[0])
		if err != nil {
			return err
		}
		return runApply(ctx, a, jobID, resume)
	}),
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Manage the candidate resume",
}

var resumeUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a resume and refresh the candidate profile",
	Args:  cobra.ExactArgs(1),
	RunE: candidateOnly(func(ctx context.Context, a *App, _ *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening resume: %w", err)
		}
		defer f.Close()

		profile, err := a.Client.UploadResume(ctx, filepath.Base(args[0]), f)
		if err != nil {
			return err
		}

		fmt.Fprintf(a.Out, "Resume uploaded for %s <%s>.\n", profile.Name, profile.Email)
		if profile.Skills != "" {
			fmt.Fprintf(a.Out, "Skills: %s\n", profile.Skills)
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(jobsCmd, resumeCmd)
	jobsCmd.AddCommand(jobsListCmd, jobsCreateCmd, jobsApplyCmd)
	resumeCmd.AddCommand(resumeUploadCmd)

	jobsListCmd.Flags().Bool("include-applied", false, "also show jobs already applied to (candidates)")
	jobsListCmd.Flags().Float64("min-score", 0, "hide jobs with a lower match score (candidates)")
	jobsListCmd.Flags().StringSlice("keyword", nil, "only show jobs mentioning one of the keywords")

	jobsCreateCmd.Flags().String("title", "", "job title")
	jobsCreateCmd.Flags().String("description", "", "job description")
	jobsCreateCmd.Flags().String("requirements", "", "job requirements")

	jobsApplyCmd.Flags().String("resume", "", "resume file (pdf or docx)")
	_ = jobsApplyCmd.MarkFlagRequired("resume")
}

type jobsListOptions struct {
	includeApplied bool
	minScore       float64
	keywords       []string
}

// filters returns the steps for the view. Applied and score filters only make
// sense for the candidate view.
func (o jobsListOptions) filters(candidateView bool) []filtering.Filter {
	steps := []filtering.Filter{filtering.NewKeywords(o.keywords)}
	if candidateView {
		steps = append(steps, filtering.NewApplied(o.includeApplied), filtering.NewMinScore(o.minScore))
	}
	return steps
}

func runJobsList(ctx context.Context, a *App, opts jobsListOptions) error {
	var (
		jobs *hiring.Jobs
		err  error
	)

	isCandidate := a.Store.Identity().HasRole(session.RoleCandidate)
	if isCandidate {
		jobs, err = a.Client.CandidateJobs(ctx)
	} else {
		jobs, err = a.Client.Jobs(ctx)
	}
	if err != nil {
		return err
	}

	steps := opts.filters(isCandidate)
	a.Logger.Debug("job filters", zap.Any("filters", filtering.Describe(steps)))

	jobs, err = filtering.Run(ctx, a.Logger, steps, jobs)
	if err != nil {
		return err
	}

	printJobs(a.Out, jobs, isCandidate)
	return nil
}

func runApply(ctx context.Context, a *App, jobID int, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening resume: %w", err)
	}
	defer f.Close()

	application, err := a.Client.Apply(ctx, jobID, filepath.Base(path), f)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.Out, "Applied to job %d (application %d, %s).\n", jobID, application.ID, application.Status)
	return nil
}

// runManualApply lets the candidate pick jobs one by one until they go back.
func runManualApply(ctx context.Context, a *App, path string) error {
	jobs, err := a.Client.CandidateJobs(ctx)
	if err != nil {
		return err
	}

	for {
		items := make([]string, 0, jobs.Len()+1)
		for _, j := range jobs.Items {
			if j.HasApplied {
				continue
			}
			items = append(items, fmt.Sprintf("%d %s / match %s", j.ID, j.Title, formatScore(j.MatchScore)))
		}

		if len(items) == 0 {
			fmt.Fprintln(a.Out, "No jobs left to apply to.")
			return nil
		}

		_, selected, err := a.Prompt.Select("Choose a job and press ENTER", append(items, promptBack))
		if err != nil {
			return err
		}
		if selected == promptBack {
			return nil
		}

		jobID, err := parseID("job id", strings.SplitN(selected, " ", 2)[0])
		if err != nil {
			return err
		}

		if err := runApply(ctx, a, jobID, path); err != nil {
			return err
		}
		jobs.MarkApplied(jobID)
	}
}

func printJobs(out io.Writer, jobs *hiring.Jobs, candidateView bool) {
	if jobs.Len() == 0 {
		fmt.Fprintln(out, "No jobs found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if candidateView {
		fmt.Fprintln(w, "ID\tTITLE\tMATCH\tAPPLIED")
		for _, j := range jobs.Items {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", j.ID, j.Title, formatScore(j.MatchScore), yesNo(j.HasApplied))
		}
	} else {
		fmt.Fprintln(w, "ID\tTITLE\tCOMPANY")
		for _, j := range jobs.Items {
			fmt.Fprintf(w, "%d\t%s\t%s\n", j.ID, j.Title, j.Company)
		}
	}
	_ = w.Flush()
}

func formatScore(score *float64) string {
	if score == nil {
		return "-"
	}
	return strconv.FormatFloat(*score, 'f', 1, 64)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func parseID(name, raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive number, got %q", name, raw)
	}
	return id, nil
}
