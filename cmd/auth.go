package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/hirectl/internal/hiring"
	"github.com/spigell/hirectl/internal/secrets"
	"github.com/spigell/hirectl/internal/session"
)

const passwordEnv = "HIRECTL_PASSWORD"

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and keep the session for the next commands",
	RunE: publicCommand(func(ctx context.Context, a *App, cmd *cobra.Command, _ []string) error {
		email, err := flagOrPrompt(a, cmd, "email", "Email")
		if err != nil {
			return err
		}

		password, err := resolvePassword(a, cmd)
		if err != nil {
			return err
		}

		return runLogin(ctx, a, email, password)
	}),
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account as a recruiter or a candidate and log in",
	RunE: publicCommand(func(ctx context.Context, a *App, cmd *cobra.Command, _ []string) error {
		var reg hiring.Registration
		var err error

		if reg.Name, err = flagOrPrompt(a, cmd, "name", "Full name"); err != nil {
			return err
		}
		if reg.Email, err = flagOrPrompt(a, cmd, "email", "Email"); err != nil {
			return err
		}
		if reg.Password, err = resolvePassword(a, cmd); err != nil {
			return err
		}

		reg.Role, _ = cmd.Flags().GetString("role")
		if reg.Role == "" {
			if _, reg.Role, err = a.Prompt.Select("Role", []string{session.RoleCandidate.String(), session.RoleRecruiter.String()}); err != nil {
				return err
			}
		}

		return runRegister(ctx, a, reg)
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: publicCommand(func(_ context.Context, a *App, _ *cobra.Command, _ []string) error {
		if err := a.Store.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(a.Out, "Logged out.")
		return nil
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	RunE: publicCommand(func(_ context.Context, a *App, _ *cobra.Command, _ []string) error {
		return runWhoami(a)
	}),
}

func init() {
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)

	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().String("email", "", "account email")
		c.Flags().String("password", "", "account password (prefer --password-file or "+passwordEnv+")")
		c.Flags().String("password-file", "", "file holding the account password")
	}
	registerCmd.Flags().String("name", "", "full name")
	registerCmd.Flags().String("role", "", "recruiter or candidate")
}

func runLogin(ctx context.Context, a *App, email, password string) error {
	resp, err := a.Client.Login(ctx, email, password)
	if err != nil {
		if hiring.IsUnauthorized(err) {
			return fmt.Errorf("%w: %w", errCredentials, err)
		}
		return err
	}

	return storeSession(a, resp)
}

func runRegister(ctx context.Context, a *App, reg hiring.Registration) error {
	role, err := session.ParseRole(reg.Role)
	if err != nil {
		return err
	}
	reg.Role = role.String()

	resp, err := a.Client.Register(ctx, reg)
	if err != nil {
		return err
	}

	return storeSession(a, resp)
}

func storeSession(a *App, resp *hiring.AuthResponse) error {
	role, err := session.ParseRole(resp.Role)
	if err != nil {
		return fmt.Errorf("backend returned an unusable role: %w", err)
	}

	if err := a.Store.Login(resp.AccessToken, role, resp.UserID); err != nil {
		return err
	}

	identity := a.Store.Identity()
	fmt.Fprintf(a.Out, "Logged in as %s (%s).\n", identity.Subject, identity.Role)

	switch identity.Role {
	case session.RoleRecruiter:
		fmt.Fprintf(a.Out, "Next: '%s jobs create' to post a job, '%s match run <job id>' to rank candidates.\n", app, app)
	case session.RoleCandidate:
		fmt.Fprintf(a.Out, "Next: '%s jobs list' to browse jobs, '%s quiz take --link <link>' for an assessment.\n", app, app)
	}
	return nil
}

func runWhoami(a *App) error {
	identity := a.Store.Identity()
	if identity == nil {
		fmt.Fprintln(a.Out, "Not logged in.")
		return nil
	}

	a.Logger.Debug("current identity", zap.Int("user_id", identity.UserID))
	fmt.Fprintf(a.Out, "%s\t%s\tuser id %d\n", identity.Subject, identity.Role, identity.UserID)
	return nil
}

func flagOrPrompt(a *App, cmd *cobra.Command, flag, label string) (string, error) {
	value, _ := cmd.Flags().GetString(flag)
	if value = strings.TrimSpace(value); value != "" {
		return value, nil
	}
	return a.Prompt.Text(label)
}

func resolvePassword(a *App, cmd *cobra.Command) (string, error) {
	value, _ := cmd.Flags().GetString("password")
	file, _ := cmd.Flags().GetString("password-file")

	password, err := secrets.Load(secrets.Source{
		Name:  "password",
		Value: value,
		Env:   passwordEnv,
		File:  file,
	})
	if err == nil {
		return password, nil
	}
	if file != "" {
		return "", err
	}

	return a.Prompt.Password("Password")
}
