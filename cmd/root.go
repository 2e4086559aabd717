package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/hirectl/internal/guard"
	"github.com/spigell/hirectl/internal/hiring"
	"github.com/spigell/hirectl/internal/session"
)

const (
	app       = "hirectl"
	envPrefix = "HIRECTL"
)

type Config struct {
	APIURL      string           `mapstructure:"api-url"`
	SessionFile string           `mapstructure:"session-file"`
	Timeout     time.Duration    `mapstructure:"timeout"`
	UserAgent   string           `mapstructure:"user-agent"`
	Debug       bool             `mapstructure:"debug"`
	JSON        bool             `mapstructure:"json"`
	Metrics     *MetricsConfig   `mapstructure:"metrics"`
	Telemetry   *TelemetryConfig `mapstructure:"telemetry"`
	Watch       *WatchConfig     `mapstructure:"watch"`
}

type MetricsConfig struct {
	Addr      string    `mapstructure:"addr"`
	Namespace string    `mapstructure:"namespace"`
	Buckets   []float64 `mapstructure:"buckets"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service-name"`
}

type WatchConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "hirectl is a cli for the hiring platform: jobs, assessments and candidate rankings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hirectl.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("api-url", hiring.DefaultAPIURL, "base url of the hiring api")
	rootCmd.PersistentFlags().String("session-file", "", "where the login session is kept (default is in the user config dir)")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("api-url", rootCmd.PersistentFlags().Lookup("api-url"))
	viper.BindPFlag("session-file", rootCmd.PersistentFlags().Lookup("session-file"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api-url", hiring.DefaultAPIURL)
	v.SetDefault("timeout", hiring.DefaultTimeout)
	v.SetDefault("user-agent", "")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("metrics.namespace", app)
	v.SetDefault("telemetry.service-name", app)
	v.SetDefault("watch.interval", 30*time.Second)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

func initConfig() {
	if err := readConfig(viper.GetViper(), cfgFile); err != nil {
		fmt.Fprintln(os.Stderr, "reading config:", err)
		os.Exit(1)
	}
}

// readConfig loads file, or hirectl.yaml from the working directory when it exists.
func readConfig(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
		return v.ReadInConfig()
	}

	v.AddConfigPath(".")
	v.SetConfigName(app)
	v.SetConfigType("yaml")

	var notFound viper.ConfigFileNotFoundError
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return err
	}

	return nil
}

func getConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.Metrics == nil {
		config.Metrics = &MetricsConfig{}
	}
	if config.Telemetry == nil {
		config.Telemetry = &TelemetryConfig{ServiceName: app}
	}
	if config.Watch == nil {
		config.Watch = &WatchConfig{}
	}
	if config.Timeout <= 0 {
		config.Timeout = hiring.DefaultTimeout
	}

	if config.SessionFile == "" {
		path, err := defaultSessionFile()
		if err != nil {
			return nil, err
		}
		config.SessionFile = path
	}

	return config, nil
}

func defaultSessionFile() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config dir for the session file: %w", err)
	}
	return filepath.Join(dir, app, "session.json"), nil
}

// errCredentials marks a login the backend refused; its detail is shown as is.
var errCredentials = errors.New("credentials rejected")

// UserMessage renders err for the terminal. Backend details are shown verbatim,
// a 401 or 403 outside login as access denied.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, session.ErrLoginRequired):
		return fmt.Sprintf("%s: run '%s login' first", err, app)
	case errors.Is(err, guard.ErrAccessDenied):
		return err.Error()
	case errors.Is(err, errCredentials):
		return hiring.Detail(err)
	case hiring.IsUnauthorized(err):
		return fmt.Sprintf("%s: %s", guard.ErrAccessDenied, hiring.Detail(err))
	case hiring.IsTransport(err):
		return "backend is unreachable, try again later"
	default:
		return hiring.Detail(err)
	}
}
