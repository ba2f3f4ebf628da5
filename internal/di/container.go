package di

import (
	"flag"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/email-verifier/internal/adapters/report"
	"github.com/mikey/email-verifier/internal/config"
	"github.com/mikey/email-verifier/internal/core"
	"github.com/mikey/email-verifier/internal/factory"
	"github.com/mikey/email-verifier/internal/input"
	"github.com/mikey/email-verifier/internal/logging"
	"github.com/mikey/email-verifier/internal/metrics"
	"github.com/mikey/email-verifier/internal/ports"
	"github.com/mikey/email-verifier/internal/utils"
)

// CLIFlags contains all command line flags
type CLIFlags struct {
	ConfigFile     string
	BackendURL     string
	Emails         string
	InputFile      string
	Concurrency    int
	Retries        int
	TimeoutSeconds int
	Store          string
	Output         string
	NoHealthCheck  bool
	Verbose        bool
	JSONLog        bool

	// set holds the names of flags given explicitly on the command line
	set map[string]bool
}

// ParseFlags parses command line arguments (without the program name)
func ParseFlags(args []string, output io.Writer) (*CLIFlags, error) {
	flags := &CLIFlags{set: make(map[string]bool)}

	fs := flag.NewFlagSet("email-verifier", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file")
	fs.StringVar(&flags.BackendURL, "backend-url", "", "Base URL of the verification backend")
	fs.StringVar(&flags.Emails, "emails", "", "Comma-separated list of emails to verify")
	fs.StringVar(&flags.InputFile, "file", "", "File with one email per line (- for stdin)")
	fs.IntVar(&flags.Concurrency, "concurrency", 5, "Maximum number of concurrent verifications")
	fs.IntVar(&flags.Retries, "retries", 2, "Retries per email after the first attempt")
	fs.IntVar(&flags.TimeoutSeconds, "timeout", 30, "Per-attempt timeout in seconds")
	fs.StringVar(&flags.Store, "store", "", "Result store (memory, sqlite, mysql, redis)")
	fs.StringVar(&flags.Output, "output", "", "File for per-email JSON result lines (- for stdout, empty to disable)")
	fs.BoolVar(&flags.NoHealthCheck, "no-health-check", false, "Skip waiting for the backend health endpoint")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		flags.set[f.Name] = true
	})

	return flags, nil
}

// Apply overrides configuration values with the flags given explicitly
func (flags *CLIFlags) Apply(cfg *config.Config) {
	if flags.set["backend-url"] {
		cfg.Set("backend.url", flags.BackendURL)
	}
	if flags.set["emails"] {
		cfg.Set("input.emails", strings.Split(flags.Emails, ","))
	}
	if flags.set["file"] {
		cfg.Set("input.file", flags.InputFile)
	}
	if flags.set["concurrency"] {
		cfg.Set("batch.concurrency", flags.Concurrency)
	}
	if flags.set["retries"] {
		cfg.Set("retry.count", flags.Retries)
	}
	if flags.set["timeout"] {
		cfg.Set("backend.timeout_seconds", flags.TimeoutSeconds)
	}
	if flags.set["store"] {
		cfg.Set("store.type", flags.Store)
	}
	if flags.set["output"] {
		cfg.Set("output.file", flags.Output)
	}
	if flags.NoHealthCheck {
		cfg.Set("health.enabled", false)
	}
	if flags.JSONLog {
		cfg.Set("logging.format", "json")
	}
}

// BuildContainer creates and configures a dependency injection container
func BuildContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags) (*config.Config, error) {
		cfg, err := config.New(flags.ConfigFile)
		if err != nil {
			return nil, err
		}
		flags.Apply(cfg)
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(cfg *config.Config, flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitLogger(cfg, flags.Verbose)
	}); err != nil {
		return nil, err
	}

	if err := provideServices(container); err != nil {
		return nil, err
	}

	return container, nil
}

// provideServices registers everything downstream of configuration and logging
func provideServices(container *dig.Container) error {
	// Register factories
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewBackendFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return err
	}

	// Register text processor and input loader
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.TextProcessorFactory, tp *utils.TextProcessor) *input.Loader {
		return f.CreateLoader(tp)
	}); err != nil {
		return err
	}

	// Register backend client
	if err := container.Provide(func(f *factory.BackendFactory) (core.BackendClient, error) {
		return f.CreateBackendClient()
	}); err != nil {
		return err
	}

	// Register result store and the sinks built on it
	if err := container.Provide(func(f *factory.StoreFactory) (ports.ResultStore, error) {
		return f.CreateResultStore()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(cfg *config.Config, s ports.ResultStore) (*report.JSONLinesWriter, error) {
		path := cfg.GetOutput().File
		if path == "" {
			return report.NewJSONLinesWriter(io.Discard, s), nil
		}
		return report.OpenJSONLines(path, s)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(w *report.JSONLinesWriter) core.ResultSink {
		return w
	}); err != nil {
		return err
	}
	// Stdout carries result lines, so the summary goes to stderr
	if err := container.Provide(func(s ports.ResultStore) core.SummarySink {
		return report.NewConsoleReporter(os.Stderr, s)
	}); err != nil {
		return err
	}

	// Register metrics
	if err := container.Provide(prometheus.NewRegistry); err != nil {
		return err
	}
	if err := container.Provide(metrics.NewRecorder); err != nil {
		return err
	}
	if err := container.Provide(func(r *metrics.Recorder) core.Observer {
		return r
	}); err != nil {
		return err
	}

	// Register validated run settings
	if err := container.Provide(func(cfg *config.Config) (core.RunConfig, error) {
		return cfg.GetRun()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(cfg *config.Config) (core.RequestDefaults, error) {
		return cfg.GetRequestDefaults()
	}); err != nil {
		return err
	}

	// Register verification service
	if err := container.Provide(core.NewVerificationService); err != nil {
		return err
	}

	return nil
}
