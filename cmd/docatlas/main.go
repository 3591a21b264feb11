// Command docatlas crawls documentation sites and extracts API facts
// into a local record store.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/jsliwa/docatlas"
	"github.com/jsliwa/docatlas/crawl"
	"github.com/jsliwa/docatlas/extract"
	"github.com/jsliwa/docatlas/gemini"
	"github.com/jsliwa/docatlas/goquery"
	dochttp "github.com/jsliwa/docatlas/http"
	"github.com/jsliwa/docatlas/htmltomarkdown"
	"github.com/jsliwa/docatlas/redis"
	"github.com/jsliwa/docatlas/robots"
	"github.com/jsliwa/docatlas/session"
	docslog "github.com/jsliwa/docatlas/slog"
	"github.com/jsliwa/docatlas/sqlite"
	"github.com/jsliwa/docatlas/trafilatura"
	"google.golang.org/genai"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// SQLite database used when the Redis store is not selected.
	DB *sqlite.DB

	// Record store for end-to-end testing.
	Records docatlas.RecordStore
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("docatlas"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'docatlas --help' to see available commands")
	}

	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd := strings.Fields(kongCtx.Command())[0]

	if cmd == "crawl" || cmd == "records" {
		store, err := m.openStore(cli.Redis, stderr)
		if err != nil {
			return err
		}
		defer m.Close()
		deps.Records = store
	}

	if cmd == "crawl" {
		sess, err := m.buildSession(ctx, cli, deps.Records, stderr)
		if err != nil {
			return err
		}
		defer sess.Crawler.Fetcher.Close()
		deps.Session = sess
	}

	return kongCtx.Run(deps)
}

// openStore selects the record store: Redis when an address is given,
// otherwise the local SQLite database.
func (m *Main) openStore(redisAddr string, stderr io.Writer) (docatlas.RecordStore, error) {
	if redisAddr != "" {
		host, port, err := net.SplitHostPort(redisAddr)
		if err != nil {
			host, port = redisAddr, ""
		}
		store, err := redis.NewRecordStore(redis.Config{Host: host, Port: port})
		if err != nil {
			return nil, err
		}
		m.Records = store
		return store, nil
	}

	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set DOCATLAS_DB to use a different database path\n")
		return nil, fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	m.Records = sqlite.NewRecordStore(m.DB)
	return m.Records, nil
}

// buildSession wires the full crawl-and-extract pipeline for one
// invocation of the crawl command.
func (m *Main) buildSession(ctx context.Context, cli *CLI, store docatlas.RecordStore, stderr io.Writer) (*session.Session, error) {
	settings, err := LoadSettings(cli.Crawl.Config)
	if err != nil {
		return nil, err
	}
	cfg := settings.CrawlConfig(&cli.Crawl)

	maxAge, err := time.ParseDuration(cli.Crawl.MaxAge)
	if err != nil {
		return nil, docatlas.Errorf(docatlas.EINVALID, "invalid --max-record-age %q: %v", cli.Crawl.MaxAge, err)
	}

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
		fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
		return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(stderr, nil))

	// Token counting is best-effort; without it content goes to the
	// analyzer untruncated.
	var tokens docatlas.TokenCounter
	if tc, err := gemini.NewTokenCounter(gemini.Model); err == nil {
		tokens = tc
	} else {
		logger.Warn("token counter unavailable, skipping content budgeting", "error", err)
	}

	var robotsPolicy docatlas.RobotsPolicy
	if cfg.RespectRobots {
		robotsPolicy = robots.NewAgent(nil)
	}

	crawler := &crawl.Crawler{
		Fetcher: docslog.NewLoggingFetcher(
			dochttp.NewFetcher(goquery.NewLinkExtractor(), dochttp.WithTimeout(cfg.FetchTimeout)),
			logger,
		),
		Limiter: crawl.NewDomainLimiter(cfg.RequestDelay),
		Robots:  robotsPolicy,
		Logger:  logger,
		Config:  cfg,
	}

	extractor := &extract.Extractor{
		Analyzer:     docslog.NewLoggingAnalyzer(gemini.NewAnalyzer(client), logger),
		Store:        store,
		Content:      trafilatura.NewExtractor(),
		Converter:    htmltomarkdown.NewConverter(),
		Tokens:       tokens,
		MaxRecordAge: maxAge,
		Timeout:      cfg.AnalyzeTimeout,
		Logger:       logger,
	}

	sess := &session.Session{
		Crawler:   crawler,
		Extractor: extractor,
		Workers:   cli.Crawl.Workers,
		Logger:    logger,
	}
	if cli.Crawl.FromSitemap {
		sess.Sitemap = dochttp.NewSitemapService(nil)
	}
	return sess, nil
}

func defaultDBPath() string {
	if path := os.Getenv("DOCATLAS_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "docatlas.db"
	}
	dir := filepath.Join(home, ".docatlas")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "docatlas.db")
}

// truncateURL shortens long URLs for table-style output.
func truncateURL(url string, max int) string {
	if len(url) <= max {
		return url
	}
	if max <= 3 {
		return url[:max]
	}
	return url[:max-3] + "..."
}
