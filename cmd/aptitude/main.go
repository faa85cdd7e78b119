package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/pavelanni/aptitude/internal/bank"
	"github.com/pavelanni/aptitude/internal/grader"
	"github.com/pavelanni/aptitude/internal/handler"
	appI18n "github.com/pavelanni/aptitude/internal/i18n"
	"github.com/pavelanni/aptitude/internal/model"
	"github.com/pavelanni/aptitude/internal/practice"
	"github.com/pavelanni/aptitude/internal/report"
	"github.com/pavelanni/aptitude/internal/timer"
	"github.com/pavelanni/aptitude/internal/tui"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "aptitude",
		Short: "Timed aptitude test practice with instant grading",
	}

	serve := serveCmd()
	root.AddCommand(serve, gradeCmd(), practiceCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `aptitude --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

// examFlags registers the flags every command shares.
func examFlags(f *pflag.FlagSet, logLevel string) {
	f.StringP("exam", "e", "exams/electrical.yaml", "Path to the exam file (YAML or JSON)")
	f.StringP("lang", "l", "en", "UI language (en, ru)")
	f.Duration("math-duration", 0, "Math section time limit (0 = exam file or 50m)")
	f.Duration("reading-duration", 0, "Reading section time limit (0 = exam file or 50m)")
	f.String("summary-policy", "results", "Thresholds for the score bars (results, summary or PASS/BORDERLINE)")
	f.String("breakdown-policy", "summary", "Thresholds for the breakdown headings (results, summary or PASS/BORDERLINE)")
	f.String("log-level", logLevel, "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP practice server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /prep)")
	f.Bool("secure-cookies", true, "Set Secure flag on cookies")
	f.Duration("session-ttl", 2*time.Hour, "Drop practice pages unused for this long (0 keeps them until shutdown)")
	examFlags(f, "info")
	return cmd
}

func gradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade an answers file against an exam",
		RunE:  runGrade,
	}
	f := cmd.Flags()
	f.StringP("answers", "A", "", "Answers file: a YAML or JSON map of question id to option (required)")
	f.StringP("format", "f", "text", "Output format (text, json)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.Bool("no-color", false, "Disable coloured output")
	examFlags(f, "info")

	_ = cmd.MarkFlagRequired("answers")

	return cmd
}

func practiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "practice",
		Short: "Practice an exam in the terminal",
		RunE:  runPractice,
	}
	f := cmd.Flags()
	f.Bool("no-color", false, "Disable coloured output")
	// The terminal UI owns the screen; keep logs quiet unless asked.
	examFlags(f, "warn")
	return cmd
}

// commandConfig builds the command's viper once, configures logging from it and only
// then reports on the config file.
func commandConfig(cmd *cobra.Command) *viper.Viper {
	v, cfgErr := viperForCmd(cmd)
	setupLogging(v, cmd.ErrOrStderr())
	if cfgErr != nil {
		slog.Warn("error reading config file", "error", cfgErr)
	} else if used := v.ConfigFileUsed(); used != "" {
		slog.Info("loaded config file", "path", used)
	}
	return v
}

func setupLogging(v *viper.Viper, w io.Writer) {
	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(w, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(w, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
// A missing config file is not an error.
func viperForCmd(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("APTITUDE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("aptitude")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/aptitude")
	v.AddConfigPath("/etc/aptitude")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return v, err
		}
	}
	return v, nil
}

// loadExam reads the exam file and the settings shared by every command.
func loadExam(v *viper.Viper) (model.Exam, practice.Config, practice.Policies, error) {
	exam, err := bank.Load(v.GetString("exam"))
	if err != nil {
		return model.Exam{}, practice.Config{}, practice.Policies{}, fmt.Errorf("load exam: %w", err)
	}

	cfg := practice.Config{Durations: make(map[model.Section]time.Duration)}
	for _, sec := range model.Sections {
		if d := v.GetDuration(string(sec) + "-duration"); d > 0 {
			cfg.Durations[sec] = d
		}
	}

	summary, err := grader.ParsePolicy(v.GetString("summary-policy"))
	if err != nil {
		return model.Exam{}, practice.Config{}, practice.Policies{}, fmt.Errorf("summary-policy: %w", err)
	}
	breakdown, err := grader.ParsePolicy(v.GetString("breakdown-policy"))
	if err != nil {
		return model.Exam{}, practice.Config{}, practice.Policies{}, fmt.Errorf("breakdown-policy: %w", err)
	}
	return exam, cfg, practice.Policies{Summary: summary, Breakdown: breakdown}, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	v := commandConfig(cmd)

	exam, sessCfg, policies, err := loadExam(v)
	if err != nil {
		return err
	}

	// Initialize i18n.
	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	registry := practice.NewRegistry()
	defer registry.Close()

	h := handler.New(exam, registry, timer.RealScheduler{}, handler.Config{
		BasePath:      basePath,
		SecureCookies: v.GetBool("secure-cookies"),
		Policies:      policies,
		Session:       sessCfg,
	})

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"exam", exam.Title,
		"questions", len(exam.Questions),
		"lang", lang,
		"math_duration", exam.Duration(model.SectionMath),
		"reading_duration", exam.Duration(model.SectionReading),
		"base_path", basePath,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	if ttl := v.GetDuration("session-ttl"); ttl > 0 {
		g.Go(func() error {
			registry.Run(gctx, time.Minute, ttl)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server", "open_pages", registry.Len())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func runGrade(cmd *cobra.Command, _ []string) error {
	v := commandConfig(cmd)

	exam, sessCfg, policies, err := loadExam(v)
	if err != nil {
		return err
	}
	answers, err := bank.LoadAnswers(v.GetString("answers"))
	if err != nil {
		return fmt.Errorf("load answers: %w", err)
	}

	sess := practice.New(exam, sessCfg, timer.RealScheduler{})
	res := practice.Present(sess.Grade(answers), exam.Layout, policies)

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch strings.ToLower(v.GetString("format")) {
	case "json":
		err = report.WriteJSON(w, res)
	case "text", "":
		err = report.WriteText(w, res, v.GetBool("no-color") || (outPath != "-" && outPath != ""))
	default:
		return fmt.Errorf("unknown format %q", v.GetString("format"))
	}
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func runPractice(cmd *cobra.Command, _ []string) error {
	v := commandConfig(cmd)

	exam, sessCfg, policies, err := loadExam(v)
	if err != nil {
		return err
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}
	ctx := appI18n.WithLocalizer(context.Background(), appI18n.NewLocalizer(appI18n.Match(lang)))

	sess := practice.New(exam, sessCfg, timer.RealScheduler{})
	return tui.Run(ctx, sess, os.Stdout, tui.Options{
		NoColor:  v.GetBool("no-color"),
		Policies: policies,
	})
}
