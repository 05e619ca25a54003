package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/jlsanzbreton/smart-receipt-analyzer2/internal/analysis"
	"github.com/jlsanzbreton/smart-receipt-analyzer2/internal/expense"
	"github.com/jlsanzbreton/smart-receipt-analyzer2/internal/migration"
	"github.com/jlsanzbreton/smart-receipt-analyzer2/internal/model"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("receipt-analyzer")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "receipt-analyzer.db", "Database file path")
		storagePath = fs.StringLong("storage", "./receipts", "Receipt image directory path")
		flagPath    = fs.StringLong("migration-flag", "receipt-analyzer.migrated", "Legacy migration marker file path")
		legacyPath  = fs.StringLong("legacy-storage", "legacy-storage.json", "Legacy flat storage file path")
		modelType   = fs.StringLong("model", "gemini", "Model provider: 'gemini' or 'ollama'")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL   = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, qwen2-vl)")
		currency    = fs.StringLong("currency", "EUR", "Fallback currency code for receipts without one")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_ANALYZER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	slog.Info("Initializing database...")
	db, err := expense.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Move any legacy flat-storage records into the database. A failure
	// here is not fatal: the flag stays unset and the next start retries.
	migrator := migration.NewMigrator(
		migration.NewFileFlag(*flagPath),
		migration.NewFileLegacyStore(*legacyPath),
		db,
	)
	if _, err := migrator.Run(); err != nil {
		slog.Warn("Legacy migration failed; legacy data may be temporarily incomplete", "error", err)
	}

	var client model.Client
	switch *modelType {
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini client...", "model", *geminiModel)
		client, err = model.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama client...", "url", *ollamaURL, "model", *ollamaModel)
		client, err = model.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid model provider", "type", *modelType, "valid", "gemini or ollama")
		os.Exit(1)
	}
	defer client.Close()

	slog.Info("Initializing storage...")
	store, err := expense.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	analyzer := analysis.NewAnalyzer(client, *currency)
	service := expense.NewService(db, analyzer, store)

	// Every category must have a threshold row; runs on every start.
	if err := service.SeedThresholds(); err != nil {
		slog.Error("Failed to seed thresholds", "error", err)
		os.Exit(1)
	}

	basicAuth := expense.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := expense.NewServer(service, basicAuth)

	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
