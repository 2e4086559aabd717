package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spigell/hirectl/internal/assessment"
	"github.com/spigell/hirectl/internal/hiring"
	"github.com/spigell/hirectl/internal/session"
)

const (
	promptSkip     = "(skip)"
	promptRetry    = "Retry"
	promptGiveUp   = "Give up"
	maxSubmitTries = 3
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Take or generate job assessments",
}

var quizTakeCmd = &cobra.Command{
	Use:   "take",
	Short: "Take the assessment for a job",
	Long: `Take the assessment for a job. Ids come from --link (the link in the
notification email) or from --job and --candidate. Answers are given in
question order with repeated --answer flags; without them every question is
asked interactively.`,
	RunE: anyRole(func(ctx context.Context, a *App, cmd *cobra.Command, _ []string) error {
		var opts quizOptions
		opts.link, _ = cmd.Flags().GetString("link")
		opts.jobID, _ = cmd.Flags().GetInt("job")
		opts.candidateID, _ = cmd.Flags().GetInt("candidate")
		answers, _ := cmd.Flags().GetStringArray("answer")

		opts.interactive = len(answers) == 0
		opts.answer = promptAnswers(a.Prompt)
		if !opts.interactive {
			opts.answer = fixedAnswers(answers)
		}

		return runQuizTake(ctx, a, opts)
	}),
}

var quizGenerateCmd = &cobra.Command{
	Use:   "generate <job id>",
	Short: "Generate the assessment for a job",
	Args:  cobra.ExactArgs(1),
	RunE: recruiterOnly(func(ctx context.Context, a *App, _ *cobra.Command, args []string) error {
		jobID, err := parseID("job id", args[0])
		if err != nil {
			return err
		}

		generated, err := a.Client.GenerateQuiz(ctx, jobID)
		if err != nil {
			return err
		}

		fmt.Fprintf(a.Out, "Quiz for job %d: %s, %d questions.\n", jobID, generated.Status, generated.QuestionsCount)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(quizCmd)
	quizCmd.AddCommand(quizTakeCmd, quizGenerateCmd)

	quizTakeCmd.Flags().String("link", "", "assessment link from the notification email")
	quizTakeCmd.Flags().Int("job", 0, "job id")
	quizTakeCmd.Flags().Int("candidate", 0, "candidate id (defaults to the logged in candidate)")
	quizTakeCmd.Flags().StringArray("answer", nil, "answer for the next question, in order; empty skips")
}

// answerFunc returns the chosen option for question i, "" to skip it.
type answerFunc func(i int, q assessment.Question) (string, error)

func fixedAnswers(answers []string) answerFunc {
	return func(i int, _ assessment.Question) (string, error) {
		if i < len(answers) {
			return answers[i], nil
		}
		return "", nil
	}
}

func promptAnswers(p Prompter) answerFunc {
	return func(i int, q assessment.Question) (string, error) {
		items := append(append([]string{}, q.Options...), promptSkip)
		_, choice, err := p.Select(fmt.Sprintf("%d. %s", i+1, q.Prompt), items)
		if err != nil {
			return "", err
		}
		if choice == promptSkip {
			return "", nil
		}
		return choice, nil
	}
}

type quizOptions struct {
	link        string
	jobID       int
	candidateID int
	interactive bool
	answer      answerFunc
}

// resolve fills the ids from the link, then from the logged in candidate.
func (o *quizOptions) resolve(identity *session.Identity) error {
	if o.link != "" {
		jobID, candidateID, err := assessment.ParseLink(o.link)
		if err != nil {
			return err
		}
		o.jobID, o.candidateID = jobID, candidateID
	}

	if o.candidateID == 0 && identity.HasRole(session.RoleCandidate) {
		o.candidateID = identity.UserID
	}

	return nil
}

// askIdentifiers prompts for whatever id the session is still missing.
func askIdentifiers(p Prompter, s *assessment.Session) error {
	jobID, candidateID := s.JobID(), s.CandidateID()
	if jobID > 0 && candidateID > 0 {
		return nil
	}

	var err error
	if jobID <= 0 {
		if jobID, err = promptID(p, "Job ID"); err != nil {
			return err
		}
	}
	if candidateID <= 0 {
		if candidateID, err = promptID(p, "Candidate ID"); err != nil {
			return err
		}
	}

	return s.SetIdentifiers(jobID, candidateID)
}

func promptID(p Prompter, label string) (int, error) {
	raw, err := p.Text(label)
	if err != nil {
		return 0, err
	}
	return parseID(strings.ToLower(label), strings.TrimSpace(raw))
}

func runQuizTake(ctx context.Context, a *App, opts quizOptions) error {
	if err := opts.resolve(a.Store.Identity()); err != nil {
		return err
	}

	s := assessment.NewSession(a.Client, a.Store, a.Logger, opts.jobID, opts.candidateID)
	if opts.interactive {
		if err := askIdentifiers(a.Prompt, s); err != nil {
			return err
		}
	}

	if err := s.Start(ctx); err != nil {
		if s.State() == assessment.Failed {
			fmt.Fprintln(a.Out, s.Message())
		}
		return err
	}

	questions := s.Questions()
	if len(questions) == 0 {
		fmt.Fprintln(a.Out, "This quiz has no questions.")
	}

	for i, q := range questions {
		if !opts.interactive {
			fmt.Fprintf(a.Out, "%d. %s\n", i+1, q.Prompt)
		}

		choice, err := opts.answer(i, q)
		if err != nil {
			return err
		}
		if choice == "" {
			continue
		}
		if err := s.Select(i, choice); err != nil {
			return err
		}
	}

	for try := 1; ; try++ {
		result, err := s.Submit(ctx)
		if err == nil {
			fmt.Fprintf(a.Out, "Score: %.1f\nFinal score: %.1f\n", result.RawScore, result.FinalScore)
			return nil
		}

		if assessment.Redirect(err) || s.State() != assessment.Active || !opts.interactive || try >= maxSubmitTries {
			return err
		}

		fmt.Fprintf(a.Out, "Failed to submit the quiz: %s\n", hiring.Detail(err))
		if _, choice, pErr := a.Prompt.Select("Submit again?", []string{promptRetry, promptGiveUp}); pErr != nil || choice == promptGiveUp {
			return err
		}
	}
}
