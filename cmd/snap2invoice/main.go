package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/zombor/snap2invoice/internal/extraction"
	"github.com/zombor/snap2invoice/internal/receipt"
	"github.com/zombor/snap2invoice/internal/transcribe"
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

	// A .env file in the working directory feeds the SNAP2INVOICE_* variables.
	// Variables already set in the environment win.
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded environment from .env")
	}

	fs := ff.NewFlagSet("snap2invoice")
	var (
		port             = fs.IntLong("port", 8080, "HTTP server port")
		dbPath           = fs.StringLong("db", "snap2invoice.db", "Database file path")
		storagePath      = fs.StringLong("storage", "./documents", "Directory for uploaded receipt documents")
		transcriberType  = fs.StringLong("transcriber", "gemini", "Transcriber: 'gemini', 'ollama' or 'tesseract'")
		geminiKey        = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel      = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL        = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel      = fs.StringLong("ollama-model", "llava", "Ollama vision model name (e.g., llava, qwen2-vl)")
		tesseractLang    = fs.StringLong("tesseract-lang", "eng", "Comma separated Tesseract languages")
		authUser         = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass         = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		rateLimit        = fs.Float64Long("rate-limit", 5, "Extraction requests per second (0 disables)")
		rateBurst        = fs.IntLong("rate-burst", 10, "Extraction request burst")
		corsOrigins      = fs.StringLong("cors-origins", "", "Comma separated allowed CORS origins (default any)")
		trace            = fs.BoolLong("trace", "Log extraction decisions at debug level")
		itemTolerance    = fs.Float64Long("item-tolerance", 0.10, "Accepted item sum deviation as a fraction of the expected subtotal")
		itemToleranceMin = fs.Float64Long("item-tolerance-min", 10, "Minimum accepted item sum deviation in dollars")
		matchTolerance   = fs.Float64Long("match-tolerance", 0.05, "Accepted deviation for the best item combination")
		maxCombination   = fs.IntLong("max-combination", 6, "Largest item combination tried when items do not add up")
		showVersion      = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("SNAP2INVOICE"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if *trace {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	// Initialize database
	slog.Info("Initializing database...")
	db, err := receipt.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize transcriber based on type
	var ocr transcribe.Transcriber
	switch *transcriberType {
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini transcriber...", "model", *geminiModel)
		ocr, err = transcribe.NewGemini(context.Background(), apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama transcriber...", "url", *ollamaURL, "model", *ollamaModel)
		ocr = transcribe.NewOllama(*ollamaURL, *ollamaModel)
	case "tesseract":
		langs := splitList(*tesseractLang)
		slog.Info("Initializing Tesseract transcriber...", "languages", langs)
		ocr = transcribe.NewTesseract(langs...)
	default:
		slog.Error("Invalid transcriber type", "type", *transcriberType, "valid", "gemini, ollama or tesseract")
		os.Exit(1)
	}
	// Digital PDFs carry their own text, only scans need OCR
	transcriber := transcribe.NewPDFText(ocr)
	defer transcriber.Close()

	// Initialize storage
	slog.Info("Initializing storage...")
	store, err := receipt.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	engineOpts := []extraction.Option{
		extraction.WithConfig(extraction.Config{
			ItemTolerancePct:  *itemTolerance,
			ItemToleranceMin:  *itemToleranceMin,
			MatchTolerancePct: *matchTolerance,
			MaxCombination:    *maxCombination,
		}),
	}
	if *trace {
		engineOpts = append(engineOpts, extraction.WithTrace(extraction.SlogTrace(slog.Default())))
	}
	engine := extraction.New(engineOpts...)

	// Initialize service
	service := receipt.NewService(db, transcriber, store, engine)

	// Initialize server
	basicAuth := receipt.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := receipt.NewServer(service, basicAuth,
		receipt.WithRateLimit(*rateLimit, *rateBurst),
		receipt.WithCORSOrigins(splitList(*corsOrigins)...),
	)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Shutdown error", "error", err)
	}
}

// splitList splits a comma separated flag value, dropping empty entries
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
