// Command websearch runs the website semantic search service, either as
// an HTTP server or as one-shot CLI operations.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"google.golang.org/genai"

	websearch "github.com/Mati018/website-search"
	"github.com/Mati018/website-search/crawl"
	"github.com/Mati018/website-search/gemini"
	"github.com/Mati018/website-search/goquery"
	wshttp "github.com/Mati018/website-search/http"
	"github.com/Mati018/website-search/index"
	"github.com/Mati018/website-search/ollama"
	wsslog "github.com/Mati018/website-search/slog"
	"github.com/Mati018/website-search/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()
	defer m.Close()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// CLI defines the command line interface.
type CLI struct {
	DB       string `help:"Path to the SQLite database." env:"WEBSEARCH_DB"`
	Verbose  bool   `short:"v" help:"Enable debug logging."`
	Embedder string `help:"Embedding backend (gemini or ollama)." enum:"gemini,ollama" env:"WEBSEARCH_EMBEDDER" default:"gemini"`

	OllamaHost  string `help:"Ollama server address." env:"OLLAMA_HOST" default:"http://localhost:11434"`
	OllamaModel string `help:"Ollama embedding model." env:"OLLAMA_MODEL" default:"${ollama_model}"`

	MaxPages    int     `help:"Maximum pages fetched per crawl." default:"200"`
	MaxDepth    int     `help:"Maximum crawl depth." default:"5"`
	Concurrency int     `help:"Concurrent fetches per crawl." default:"10"`
	RPS         float64 `help:"Fetch rate limit per domain, requests per second." default:"4"`
	SameHost    bool    `help:"Restrict crawls to the exact host instead of the registrable domain."`

	Serve       ServeCmd       `cmd:"" help:"Run the HTTP API server."`
	Search      SearchCmd      `cmd:"" help:"Crawl (if needed) and search a website."`
	Collections CollectionsCmd `cmd:"" help:"List indexed collections."`
	Clear       ClearCmd       `cmd:"" help:"Delete all collections."`
}

// Dependencies is bound into Kong so commands receive wired services.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	Service websearch.SearchService
	Store   websearch.VectorStore
}

// Main represents the program.
type Main struct {
	// SQLite database backing the vector store.
	DB *sqlite.DB

	fetcher websearch.Fetcher
}

// NewMain returns a new instance of Main.
func NewMain() *Main {
	return &Main{}
}

// Close gracefully releases program resources.
func (m *Main) Close() error {
	if m.fetcher != nil {
		_ = m.fetcher.Close()
	}
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	parser, err := kong.New(cli,
		kong.Name("websearch"),
		kong.Description("Semantic search over arbitrary websites."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Vars{"ollama_model": ollama.DefaultModel},
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'websearch --help' to see available commands")
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	dbPath := cli.DB
	if dbPath == "" {
		dbPath, err = defaultDBPath()
		if err != nil {
			return err
		}
	}
	m.DB = sqlite.NewDB(dbPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintln(stderr, "Hint: set WEBSEARCH_DB to use a different database path")
		return fmt.Errorf("failed to open database at %q: %w", dbPath, err)
	}

	store := wsslog.NewLoggingVectorStore(sqlite.NewVectorStore(m.DB), deps.Logger)
	deps.Store = store

	// Commands that only manage collections don't need an embedder or a
	// crawler, so keep their startup free of credential requirements.
	cmd := strings.Fields(kongCtx.Command())[0]
	if cmd == "serve" || cmd == "search" {
		embedder, err := m.newEmbedder(ctx, cli, stderr)
		if err != nil {
			return err
		}

		m.fetcher = wsslog.NewLoggingFetcher(wshttp.NewFetcher(), deps.Logger)
		crawler := &crawl.Crawler{
			Fetcher:      m.fetcher,
			Extractor:    goquery.NewExtractor(),
			Sitemaps:     wshttp.NewSitemapService(nil),
			RateLimiter:  crawl.NewDomainLimiter(cli.RPS),
			SameHostOnly: cli.SameHost,
			Limits: crawl.Limits{
				MaxPages:    cli.MaxPages,
				MaxDepth:    cli.MaxDepth,
				Concurrency: cli.Concurrency,
			},
			Logger: deps.Logger,
		}

		deps.Service = &index.Coordinator{
			Crawler:      crawler,
			Embedder:     embedder,
			Store:        store,
			ChunkOptions: websearch.DefaultChunkOptions(),
			Logger:       deps.Logger,
		}
	}

	return kongCtx.Run(deps)
}

// newEmbedder creates the embedding backend selected by flags.
func (m *Main) newEmbedder(ctx context.Context, cli *CLI, stderr io.Writer) (websearch.Embedder, error) {
	switch cli.Embedder {
	case "ollama":
		return ollama.NewEmbedder(cli.OllamaHost, cli.OllamaModel)
	default:
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			fmt.Fprintln(stderr, "GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey")
			return nil, fmt.Errorf("GEMINI_API_KEY not set")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return gemini.NewEmbedder(client), nil
	}
}

// defaultDBPath returns ~/.websearch/websearch.db, creating the
// directory if needed.
func defaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".websearch")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "websearch.db"), nil
}
