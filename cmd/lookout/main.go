// Package main is the Lookout CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hyperjump/lookout/internal/cli"
	"github.com/hyperjump/lookout/internal/config"
	"github.com/hyperjump/lookout/internal/engine"
	"github.com/hyperjump/lookout/internal/extract"
	"github.com/hyperjump/lookout/internal/geo"
	"github.com/hyperjump/lookout/internal/index"
	"github.com/hyperjump/lookout/internal/indexer"
	"github.com/hyperjump/lookout/internal/metrics"
	"github.com/hyperjump/lookout/internal/models"
	"github.com/hyperjump/lookout/internal/server"
	"github.com/hyperjump/lookout/internal/storage"
	"github.com/hyperjump/lookout/internal/watcher"
	"github.com/hyperjump/lookout/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/lookout/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "lookout server" from the project dir uses the
// project's config (including debug).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "index":
		runIndex()
	case "delete":
		runDelete()
	case "rebuild":
		runRebuild()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("lookout version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (node writes, watcher events, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Content.WatchDir != "" {
		watch := watcher.New(cfg.Content.WatchDir, components.Indexer, logger)
		if err := watch.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watch.Stop()
		if err := watch.Sync(watchCtx); err != nil {
			logger.Warn("content sync failed", zap.Error(err))
		}
	}

	srv := server.NewServer(
		components.Engine,
		components.Indexer,
		components.Storage,
		components.Indexes,
		&cfg.Server,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: lookout search [flags] [text]\n\n")
	fmt.Fprintf(fs.Output(), "Text is all remaining arguments joined by spaces. A search needs at least\none clause: text, tags, name, date, node filters, or a location.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  lookout search beach holiday
  lookout search --fuzziness 1 beach holdiay     # typo-tolerant
  lookout search --tags color:red,size:large
  lookout search --facets color --tags size:large
  lookout search --lat 55.68 --lon 12.57 --max-distance-km 25 --sort distance
  lookout search --name-starts "Annual report" --sort name
  lookout search --after 2024-01-01 --sort date_descending
`)
}

// buildSearchText joins all positional args with spaces so multi-word text
// works the same with or without shell quoting.
func buildSearchText(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the
// search text to the front of the slice so that flag.Parse() sees them. Go's
// flag package stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// parseDateFlag accepts RFC3339 or a plain date.
func parseDateFlag(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q (use RFC3339 or YYYY-MM-DD)", raw)
}

func runSearch() {
	searchArgs := searchArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8090", "server URL (empty = use direct storage when server is not running)")
	indexName := fs.String("index", "", "index to search (default: the default index)")
	fuzziness := fs.Int("fuzziness", 0, "fuzzy match distance for the text clause")
	highlight := fs.Bool("highlight", true, "return highlight snippets for text matches")
	getText := fs.Bool("text", false, "return the full text of each match")
	tagsAll := fs.String("tags", "", "tags every match must carry (comma-separated group:name)")
	tagsNone := fs.String("not-tags", "", "tags no match may carry (comma-separated group:name)")
	facets := fs.String("facets", "", "tag groups to facet on (comma-separated)")
	nodeTypes := fs.String("types", "", "node types to allow (comma-separated: content, media, member)")
	aliases := fs.String("aliases", "", "node aliases to allow (comma-separated)")
	exclude := fs.String("exclude", "", "node ids to exclude (comma-separated)")
	nameIs := fs.String("name-is", "", "exact name filter (case-insensitive)")
	nameStarts := fs.String("name-starts", "", "name prefix filter (case-insensitive)")
	nameContains := fs.String("name-contains", "", "name substring filter (case-insensitive)")
	after := fs.String("after", "", "only matches dated on or after (RFC3339 or YYYY-MM-DD)")
	before := fs.String("before", "", "only matches dated on or before (RFC3339 or YYYY-MM-DD)")
	lat := fs.Float64("lat", 0, "location clause latitude")
	lon := fs.Float64("lon", 0, "location clause longitude")
	maxDistanceKm := fs.Float64("max-distance-km", 0, "cap matches to this distance from the location")
	sortOn := fs.String("sort", "", "sort order: name, date_ascending, date_descending, distance (default: relevance)")
	outputFormat := fs.String("output", "text", "output format: text (human-readable) or json (parseable)")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgs)

	query, err := buildQuery(queryFlags{
		index:        *indexName,
		text:         buildSearchText(fs.Args()),
		fuzziness:    *fuzziness,
		highlight:    *highlight,
		getText:      *getText,
		tagsAll:      *tagsAll,
		tagsNone:     *tagsNone,
		facets:       *facets,
		nodeTypes:    *nodeTypes,
		aliases:      *aliases,
		exclude:      *exclude,
		nameIs:       *nameIs,
		nameStarts:   *nameStarts,
		nameContains: *nameContains,
		after:        *after,
		before:       *before,
		lat:          *lat,
		lon:          *lon,
		maxDistance:  *maxDistanceKm,
		sortOn:       *sortOn,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	format := cli.OutputText
	switch *outputFormat {
	case "json":
		format = cli.OutputJSON
	case "text":
		format = cli.OutputText
	default:
		fmt.Printf("Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	var result *models.Result
	if *serverURL != "" {
		// Use the HTTP API when the server is running (avoids a bleve/SQLite
		// lock conflict).
		result, err = searchViaHTTP(*serverURL, query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()

		components, err := initializeComponents(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()

		result = components.Engine.Search(context.Background(), query)
	}

	if err := cli.WriteResult(os.Stdout, result, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	if result.Error != "" {
		os.Exit(1)
	}
}

// queryFlags carries the parsed search flags into buildQuery.
type queryFlags struct {
	index        string
	text         string
	fuzziness    int
	highlight    bool
	getText      bool
	tagsAll      string
	tagsNone     string
	facets       string
	nodeTypes    string
	aliases      string
	exclude      string
	nameIs       string
	nameStarts   string
	nameContains string
	after        string
	before       string
	lat          float64
	lon          float64
	maxDistance  float64
	sortOn       string
}

func buildQuery(f queryFlags) (*models.Query, error) {
	query := &models.Query{Index: f.index, SortOn: models.SortOn(f.sortOn)}

	if f.text != "" {
		query.Text = &models.TextQuery{
			SearchText:   f.text,
			Fuzziness:    f.fuzziness,
			GetText:      f.getText,
			GetHighlight: f.highlight,
		}
	}

	all, err := cli.ParseTags(f.tagsAll)
	if err != nil {
		return nil, err
	}
	none, err := cli.ParseTags(f.tagsNone)
	if err != nil {
		return nil, err
	}
	facetOn := cli.SplitList(f.facets)
	if all != nil || none != nil || facetOn != nil {
		query.Tags = &models.TagQuery{All: all, None: none, FacetOn: facetOn}
	}

	if types := cli.SplitList(f.nodeTypes); types != nil {
		query.Node = &models.NodeQuery{}
		for _, t := range types {
			query.Node.Types = append(query.Node.Types, models.NodeType(t))
		}
	}
	if aliases := cli.SplitList(f.aliases); aliases != nil {
		if query.Node == nil {
			query.Node = &models.NodeQuery{}
		}
		query.Node.Aliases = aliases
	}
	if exclude := cli.SplitList(f.exclude); exclude != nil {
		if query.Node == nil {
			query.Node = &models.NodeQuery{}
		}
		query.Node.ExcludeIDs = exclude
	}

	if f.nameIs != "" || f.nameStarts != "" || f.nameContains != "" {
		query.Name = &models.NameQuery{Is: f.nameIs, StartsWith: f.nameStarts, Contains: f.nameContains}
	}

	afterTime, err := parseDateFlag(f.after)
	if err != nil {
		return nil, err
	}
	beforeTime, err := parseDateFlag(f.before)
	if err != nil {
		return nil, err
	}
	if afterTime != nil || beforeTime != nil {
		query.Date = &models.DateQuery{After: afterTime, Before: beforeTime}
	}

	if f.lat != 0 || f.lon != 0 {
		loc := &models.LocationQuery{Location: &geo.Location{Lat: f.lat, Lon: f.lon}}
		if f.maxDistance > 0 {
			loc.MaxDistance = &geo.Distance{Value: f.maxDistance, Unit: geo.Kilometres}
		}
		query.Location = loc
	}

	return query, nil
}

func searchViaHTTP(serverURL string, query *models.Query) (*models.Result, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var result models.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: lookout index [flags] <node.json or directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	components, logger := mustInitialize(*configPath)
	defer components.Close()
	defer logger.Sync()

	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Failed to stat path: %v\n", err)
		os.Exit(1)
	}
	if info.IsDir() {
		n, err := indexNodeDirectory(ctx, components.Indexer, path)
		if err != nil {
			fmt.Printf("Indexing directory failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Indexed %d node(s) from %s\n", n, path)
		return
	}
	node, err := readNodeFile(path)
	if err != nil {
		fmt.Printf("Failed to read node file: %v\n", err)
		os.Exit(1)
	}
	if err := components.Indexer.IndexNode(ctx, node); err != nil {
		fmt.Printf("Indexing failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Node indexed successfully: %s\n", node.ID)
}

func indexNodeDirectory(ctx context.Context, idx *indexer.Indexer, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	indexed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		node, err := readNodeFile(path)
		if err != nil {
			fmt.Printf("Skipping %s: %v\n", path, err)
			continue
		}
		if err := idx.IndexNode(ctx, node); err != nil {
			return indexed, fmt.Errorf("index %s: %w", path, err)
		}
		indexed++
	}
	return indexed, nil
}

func readNodeFile(path string) (*models.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var node models.Node
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if node.ID == "" {
		node.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &node, nil
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: lookout delete [flags] <node-id>")
		os.Exit(1)
	}
	nodeID := fs.Arg(0)

	components, logger := mustInitialize(*configPath)
	defer components.Close()
	defer logger.Sync()

	if err := components.Indexer.DeleteNode(context.Background(), nodeID); err != nil {
		fmt.Printf("Deletion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Node deleted: %s\n", nodeID)
}

func runRebuild() {
	fs := flag.NewFlagSet("rebuild", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	components, logger := mustInitialize(*configPath)
	defer components.Close()
	defer logger.Sync()

	indexed, err := components.Indexer.Rebuild(context.Background())
	if err != nil {
		fmt.Printf("Rebuild failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Reindexed %d node(s)\n", indexed)
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Nodes   int64             `json:"nodes"`
	Indexes map[string]uint64 `json:"indexes"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8090", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		components, logger := mustInitialize(*configPath)
		defer components.Close()
		defer logger.Sync()

		nodeCount, err := components.Storage.CountNodes(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count nodes failed: %v\n", err)
			os.Exit(1)
		}
		status = statusResponse{Nodes: nodeCount, Indexes: make(map[string]uint64)}
		for _, name := range components.Indexes.Names() {
			idx, err := components.Indexes.Get(name)
			if err != nil {
				continue
			}
			if count, err := idx.DocCount(); err == nil {
				status.Indexes[name] = count
			}
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("nodes:  %d   # count of stored nodes\n", status.Nodes)
		for name, count := range status.Indexes {
			fmt.Printf("index %s: %d document(s)\n", name, count)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

// Components holds initialized services.
type Components struct {
	Storage storage.Storage
	Indexes *index.Registry
	Engine  *engine.Engine
	Indexer *indexer.Indexer
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Indexes != nil {
		_ = c.Indexes.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	registry := index.NewRegistry()
	defaultIndex, err := index.Open(index.DefaultName, cfg.Storage.IndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	registry.Add(defaultIndex)
	for name, path := range cfg.Storage.Indexes {
		idx, err := index.Open(name, path)
		if err != nil {
			_ = store.Close()
			_ = registry.Close()
			return nil, fmt.Errorf("failed to open index %q: %w", name, err)
		}
		registry.Add(idx)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	eng := engine.NewEngine(registry, &cfg.Search, logger, m)
	idx := indexer.NewIndexer(store, defaultIndex, extract.NewExtractor(), logger, m)

	return &Components{
		Storage: store,
		Indexes: registry,
		Engine:  eng,
		Indexer: idx,
	}, nil
}

// mustInitialize loads config, builds a logger, and initializes components,
// exiting the process on any failure. For one-shot subcommands.
func mustInitialize(configPath string) (*Components, *zap.Logger) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return components, logger
}

func printUsage() {
	fmt.Println(`lookout - Queryable full-text and geospatial node index

Usage:
  lookout server [flags]           Start the HTTP server
  lookout search [flags] [text]    Search indexed nodes
  lookout index [flags] <path>     Index a node file (or directory of them)
  lookout delete [flags] <id>      Delete a node
  lookout rebuild [flags]          Reindex every stored node
  lookout status [flags]           Show storage and index status
  lookout version                  Show version
  lookout help                     Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/lookout/config.yaml)
  --debug            Enable debug logging (node writes, watcher events, etc.)

Search Flags:
  --server string           Server URL (default: http://localhost:8090). Use empty (--server "") for direct storage.
  --index string            Index to search (default: the default index)
  --fuzziness int           Fuzzy match distance for the text clause
  --tags string             Required tags, comma-separated group:name
  --not-tags string         Excluded tags, comma-separated group:name
  --facets string           Tag groups to facet on, comma-separated
  --types string            Node types to allow (content, media, member)
  --name-is/starts/contains Name filters (case-insensitive)
  --after/--before string   Date bounds (RFC3339 or YYYY-MM-DD)
  --lat/--lon float         Location clause center
  --max-distance-km float   Radius cap for the location clause
  --sort string             name, date_ascending, date_descending, distance
  --output string           text or json (default: text)

Examples:
  lookout server
  lookout search beach holiday
  lookout search --tags color:red --facets color,size
  lookout search --lat 55.68 --lon 12.57 --max-distance-km 25 --sort distance
  lookout index nodes/article-42.json
  lookout delete article-42
  lookout rebuild
  lookout status --output json`)
}
