package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hirectl/internal/guard"
	"github.com/spigell/hirectl/internal/hiring"
	"github.com/spigell/hirectl/internal/logger"
	"github.com/spigell/hirectl/internal/metrics"
	"github.com/spigell/hirectl/internal/ranking"
	"github.com/spigell/hirectl/internal/session"
	"github.com/spigell/hirectl/internal/telemetry"
)

// App wires the components a command needs.
type App struct {
	Config  *Config
	Logger  *zap.Logger
	Store   *session.Store
	Client  *hiring.Client
	Guard   *guard.Guard
	Metrics *metrics.Manager
	Out     io.Writer
	Prompt  Prompter

	shutdown telemetry.ShutdownFunc
}

// newApp builds the components and restores the session before returning,
// so every guard decision sees the persisted identity.
func newApp(ctx context.Context, config *Config, log *zap.Logger, out io.Writer) (*App, error) {
	store := session.NewStore(session.NewFileBackend(config.SessionFile), log)
	if err := store.Restore(); err != nil {
		return nil, err
	}

	m := metrics.NewManager(
		metrics.WithNamespace(config.Metrics.Namespace),
		metrics.WithHistogramBuckets(config.Metrics.Buckets),
	)

	client := hiring.New(store, log)
	client.APIURL = config.APIURL
	client.HTTPClient.Timeout = config.Timeout
	client.Recorder = m
	if config.UserAgent != "" {
		client.UserAgent = config.UserAgent
	}

	return &App{
		Config:   config,
		Logger:   log,
		Store:    store,
		Client:   client,
		Guard:    guard.New(store),
		Metrics:  m,
		Out:      out,
		Prompt:   terminalPrompter{},
		shutdown: telemetry.Setup(ctx, config.Telemetry.ServiceName, log),
	}, nil
}

func (a *App) Close(ctx context.Context) {
	if err := a.shutdown(ctx); err != nil {
		a.Logger.Warn("stopping telemetry", zap.Error(err))
	}
	_ = a.Logger.Sync()
}

// Orchestrator returns a ranking orchestrator reporting to the app metrics.
func (a *App) Orchestrator() *ranking.Orchestrator {
	return ranking.New(a.Client, a.Logger, ranking.WithMetrics(a.Metrics))
}

// Authorize blocks until the session is restored and checks roles.
// No roles means any logged in user.
func (a *App) Authorize(ctx context.Context, roles ...session.Role) error {
	decision, err := a.Guard.Wait(ctx, roles...)
	if err != nil {
		return err
	}

	a.Logger.Debug("authorization", zap.Stringer("decision", decision))

	return decision.Err()
}

type runFunc func(ctx context.Context, a *App, cmd *cobra.Command, args []string) error

// withApp builds the app for a command. Unless open is set the command
// requires a login with one of roles.
func withApp(open bool, roles []session.Role, fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		config, err := getConfig(viper.GetViper())
		if err != nil {
			return fmt.Errorf("getting a config: %w", err)
		}

		log, err := logger.New(config.JSON, config.Debug)
		if err != nil {
			return fmt.Errorf("creating a logger: %w", err)
		}

		a, err := newApp(ctx, config, log, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		if !open {
			if err := a.Authorize(ctx, roles...); err != nil {
				return err
			}
		}

		return fn(ctx, a, cmd, args)
	}
}

func publicCommand(fn runFunc) func(*cobra.Command, []string) error {
	return withApp(true, nil, fn)
}

func anyRole(fn runFunc) func(*cobra.Command, []string) error {
	return withApp(false, nil, fn)
}

func recruiterOnly(fn runFunc) func(*cobra.Command, []string) error {
	return withApp(false, []session.Role{session.RoleRecruiter}, fn)
}

func candidateOnly(fn runFunc) func(*cobra.Command, []string) error {
	return withApp(false, []session.Role{session.RoleCandidate}, fn)
}
