package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tobenna/quizforge/internal/auth"
	"github.com/tobenna/quizforge/internal/docparse"
	"github.com/tobenna/quizforge/internal/handler"
	appI18n "github.com/tobenna/quizforge/internal/i18n"
	"github.com/tobenna/quizforge/internal/llm"
	"github.com/tobenna/quizforge/internal/quiz"
	"github.com/tobenna/quizforge/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "quizforge",
		Short: "LLM-backed quiz generation and grading service",
	}

	serve := serveCmd()
	root.AddCommand(serve)

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "quizforge.db", "SQLite database path")
	f.String("jwt-secret", "", "Secret for signing auth tokens (or set QUIZFORGE_JWT_SECRET)")
	f.String("llm-provider", "gemini", "Default LLM provider (gemini, openrouter, mock)")
	f.String("llm-model", "", "Model name (empty = provider default)")
	f.Float32("llm-temperature", 0.7, "Sampling temperature for generation")
	f.String("parser-url", "", "Document extraction service endpoint")
	f.StringP("lang", "l", "en", "Default response language (en, fr)")
	f.StringSlice("cors-origins", []string{"*"}, "Allowed CORS origins")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

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
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("QUIZFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("quizforge")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/quizforge")
	v.AddConfigPath("/etc/quizforge")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	secret := v.GetString("jwt-secret")
	if secret == "" {
		return fmt.Errorf("jwt secret is required: set --jwt-secret flag or QUIZFORGE_JWT_SECRET env var")
	}

	llmCfg := llm.Config{
		Provider:    v.GetString("llm-provider"),
		Model:       v.GetString("llm-model"),
		Temperature: float32(v.GetFloat64("llm-temperature")),
	}

	h := handler.New(
		db,
		quiz.NewService(db),
		auth.NewService(secret),
		docparse.New(v.GetString("parser-url")),
		llmCfg,
	)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   v.GetStringSlice("cors-origins"),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"provider", llmCfg.Provider,
		"model", llmCfg.Model,
		"lang", lang,
		"parser_url", v.GetString("parser-url"),
	)
	return http.ListenAndServe(addr, r)
}
