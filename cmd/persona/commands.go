package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/persona/internal/batch"
	"github.com/kalambet/persona/internal/collect"
	"github.com/kalambet/persona/internal/config"
	"github.com/kalambet/persona/internal/lexicon"
	"github.com/kalambet/persona/internal/persona"
	"github.com/kalambet/persona/internal/reddit"
	"github.com/kalambet/persona/internal/storage"
)

// analyzer runs one analysis.
type analyzer interface {
	Analyze(ctx context.Context, username string, opts persona.Options) (persona.Result, error)
}

// cacheController exposes the in-process fetch cache.
type cacheController interface {
	Stats() collect.Stats
	ClearCache() int
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func limitOptions(cmd *cobra.Command) persona.Options {
	posts, _ := cmd.Flags().GetInt("posts")
	comments, _ := cmd.Flags().GetInt("comments")
	return persona.Options{PostLimit: posts, CommentLimit: comments}
}

// --- analyze ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze <username>",
	Short: "Analyze a Reddit user and print the persona report",
	Long: `Analyze a Reddit user and print the persona report.

The report is saved under report.output_dir and indexed for "persona reports".

Examples:
  persona analyze spez
  persona analyze u/spez --posts 50 --comments 200
  persona analyze spez --no-save
  persona analyze spez --remote`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := limitOptions(cmd)
		opts.SkipSave, _ = cmd.Flags().GetBool("no-save")
		remote, _ := cmd.Flags().GetBool("remote")

		if remote {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			client.httpClient.Timeout = 5 * time.Minute
			ctx, stop := signalContext()
			defer stop()
			return analyzeUser(ctx, os.Stdout, remoteAnalyzer{client: client}, nil, args[0], opts)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signalContext()
		defer stop()
		return analyzeUser(ctx, os.Stdout, a.svc, a.collector, args[0], opts)
	},
}

func init() {
	analyzeCmd.Flags().Int("posts", 0, "maximum posts to scan (default fetch.post_limit)")
	analyzeCmd.Flags().Int("comments", 0, "maximum comments to scan (default fetch.comment_limit)")
	analyzeCmd.Flags().Bool("no-save", false, "print the report without saving it")
	analyzeCmd.Flags().Bool("remote", false, "run the analysis on the running server")
}

// analyzeUser runs one analysis and prints the report with its
// performance summary.
func analyzeUser(ctx context.Context, w io.Writer, an analyzer, cc cacheController, username string, opts persona.Options) error {
	banner(w, colorBlue, "🚀 REDDIT PERSONA ANALYZER - STARTING ANALYSIS", 60)

	res, err := an.Analyze(ctx, username, opts)
	if err != nil {
		fmt.Fprintln(w, colorize(colorRed, "❌ Analysis failed - "+failureReason(err)))
		return err
	}
	if res.FromCache {
		fmt.Fprintln(w, colorize(colorYellow, "⚡ Using cached data for u/"+res.Username))
	}

	fmt.Fprintln(w)
	banner(w, colorGreen, "✅ ANALYSIS COMPLETE", 60)
	fmt.Fprintln(w, res.Report)

	if res.FilePath != "" {
		fmt.Fprintln(w, colorize(colorGreen, "💾 Report saved to: "+res.FilePath))
	}
	if res.ReportID != "" {
		fmt.Fprintf(w, "   Report ID: %s\n", res.ReportID)
	}

	var hits int64
	if cc != nil {
		hits = cc.Stats().Hits
	}
	printPerformance(w, res, hits)
	return nil
}

// failureReason turns an analysis error into a one-line explanation.
func failureReason(err error) string {
	switch {
	case errors.Is(err, persona.ErrInvalidUsername):
		return "not a valid Reddit username"
	case errors.Is(err, reddit.ErrUserNotFound):
		return "user not found or suspended"
	case errors.Is(err, persona.ErrNoData):
		return "no posts or comments available for analysis"
	case errors.Is(err, reddit.ErrUnauthorized):
		return "Reddit rejected the API credentials"
	case errors.Is(err, context.Canceled):
		return "interrupted"
	default:
		return "could not retrieve user data: " + err.Error()
	}
}

// --- batch ---

var batchCmd = &cobra.Command{
	Use:   "batch <user1,user2,...>",
	Short: "Analyze several users through the job queue",
	Long: `Analyze several users through the persistent job queue.

Transient failures (network errors, Reddit outages) are retried with backoff;
unknown users and users without content fail immediately.

Examples:
  persona batch spez,kn0thing
  persona batch spez kn0thing --posts 25`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		names := batch.ParseUsernames(strings.Join(args, ","))
		if len(names) == 0 {
			return fmt.Errorf("no usernames given")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signalContext()
		defer stop()
		return runBatch(ctx, os.Stdout, a.store, a.svc, names, limitOptions(cmd), 200*time.Millisecond)
	},
}

func init() {
	batchCmd.Flags().Int("posts", 0, "maximum posts to scan per user")
	batchCmd.Flags().Int("comments", 0, "maximum comments to scan per user")
}

// runBatch enqueues one job per user, runs a worker until every job has
// finished and prints a summary.
func runBatch(ctx context.Context, w io.Writer, store batch.JobStore, an batch.Analyzer, names []string, opts persona.Options, poll time.Duration) error {
	ids, err := batch.Enqueue(store, names, opts)
	if err != nil {
		return err
	}
	printStep("Queued %d analyses", len(ids))

	worker := batch.NewWorker(store, an, poll)
	worker.OnResult = func(username string, res persona.Result, err error) {
		switch {
		case err == nil:
			printSuccess("u/%s analyzed (%d posts, %d comments)", res.Username, res.Profile.PostCount, res.Profile.CommentCount)
		case batch.Permanent(err):
			printError("u/%s: %s", username, failureReason(err))
		default:
			printWarning("u/%s: attempt failed, will retry: %v", username, err)
		}
	}

	workerCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(workerCtx)
	}()

	jobs, waitErr := batch.Wait(ctx, store, ids, poll)
	cancel()
	<-done
	if waitErr != nil {
		return fmt.Errorf("waiting for batch: %w", waitErr)
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USER\tSTATUS\tATTEMPTS\tERROR")
	failed := 0
	for i, j := range jobs {
		if j.Status != storage.JobCompleted {
			failed++
		}
		fmt.Fprintf(tw, "u/%s\t%s\t%d\t%s\n", names[i], j.Status, j.Attempts, j.LastError)
	}
	tw.Flush()

	if failed > 0 {
		return fmt.Errorf("%d of %d analyses failed", failed, len(jobs))
	}
	return nil
}

// --- interactive ---

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Menu-driven analysis session",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signalContext()
		defer stop()
		return runInteractive(ctx, os.Stdin, os.Stdout, a.svc, a.collector)
	},
}

// --- reports ---

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List, show or delete saved reports",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved reports, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		reports, err := store.ListReports(strings.TrimPrefix(username, "u/"), limit)
		if err != nil {
			return err
		}
		printReportList(os.Stdout, reports)
		return nil
	},
}

var reportsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		rep, err := store.GetReport(args[0])
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("report %s not found", args[0])
		}
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}
		fmt.Println(rep.Body)
		return nil
	},
}

var reportsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a report from the index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.DeleteReport(args[0]); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("report %s not found", args[0])
			}
			return err
		}
		printSuccess("Deleted report %s", args[0])
		return nil
	},
}

func init() {
	reportsListCmd.Flags().String("username", "", "only reports for this user")
	reportsListCmd.Flags().Int("limit", 20, "maximum number of reports to list")
	reportsShowCmd.Flags().Bool("json", false, "print the report record as JSON")
	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsShowCmd)
	reportsCmd.AddCommand(reportsDeleteCmd)
}

// openStore opens the report index without requiring Reddit credentials.
func openStore() (*storage.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	return store, nil
}

func printReportList(w io.Writer, reports []storage.Report) {
	if len(reports) == 0 {
		fmt.Fprintln(w, "No reports found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tUSER\tPOSTS\tCOMMENTS\tFILE")
	for _, r := range reports {
		fmt.Fprintf(tw, "%s\t%s\tu/%s\t%d\t%d\t%s\n",
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Username,
			r.PostCount,
			r.CommentCount,
			r.FilePath,
		)
	}
	tw.Flush()
}

// --- cache ---

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the fetch cache of the running server",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		ctx, stop := signalContext()
		defer stop()

		stats, err := fetchCacheStats(ctx, client)
		if err != nil {
			return err
		}
		printCacheStats(os.Stdout, stats)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		ctx, stop := signalContext()
		defer stop()

		removed, err := clearRemoteCache(ctx, client)
		if err != nil {
			return err
		}
		printSuccess("Cache cleared (%d entries removed)", removed)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func fetchCacheStats(ctx context.Context, client *apiClient) (collect.Stats, error) {
	resp, err := client.get(ctx, "/cache")
	if err != nil {
		return collect.Stats{}, err
	}
	var stats collect.Stats
	if err := decodeJSON(resp, &stats); err != nil {
		return collect.Stats{}, err
	}
	return stats, nil
}

func clearRemoteCache(ctx context.Context, client *apiClient) (int, error) {
	resp, err := client.delete(ctx, "/cache")
	if err != nil {
		return 0, err
	}
	var result struct {
		Status  string `json:"status"`
		Removed int    `json:"removed"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return 0, err
	}
	return result.Removed, nil
}

func printCacheStats(w io.Writer, s collect.Stats) {
	fmt.Fprintln(w, colorize(colorCyan, "📊 CACHE STATISTICS:"))
	fmt.Fprintf(w, "   Cached entries: %d\n", s.Entries)
	fmt.Fprintf(w, "   Total cache hits: %d\n", s.Hits)
	fmt.Fprintf(w, "   Cache misses: %d\n", s.Misses)
	fmt.Fprintf(w, "   Cache enabled: %t\n", s.Enabled)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		printConfig(os.Stdout, config.ShowAll(cfg))
		if err := cfg.RequireReddit(); err != nil {
			printWarning("%v", err)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: "Set a configuration value.\n\nValid keys:\n  " +
		strings.Join(config.ValidKeys(), "\n  "),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configSetSecretCmd = &cobra.Command{
	Use:   "set-secret <key> <value>",
	Short: "Store a secret in the platform secret store",
	Long: "Store a secret in the platform secret store.\n\nSecret keys:\n  " +
		strings.Join(config.SecretKeys(), "\n  "),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetSecret(args[0], args[1]); err != nil {
			return err
		}
		printSuccess("Stored %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetSecretCmd)
}

func printConfig(w io.Writer, keys []config.KeyInfo) {
	for _, k := range keys {
		fmt.Fprintf(w, "  %s = %s", colorize(colorBold, k.Key), k.Value)
		if k.EnvVar != "" {
			fmt.Fprintf(w, "  (%s)", k.EnvVar)
		}
		fmt.Fprintln(w)
	}
}

// --- lexicon ---

var lexiconCmd = &cobra.Command{
	Use:   "lexicon",
	Short: "Inspect the keyword lexicon",
}

var lexiconShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Summarize the active lexicon",
	Long: `Summarize the active lexicon.

With --yaml the full lexicon is printed in the format accepted by
lexicon.path, which makes a convenient starting point for a custom file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		asYAML, _ := cmd.Flags().GetBool("yaml")

		if file == "" {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			file = cfg.Lexicon.Path
		}
		lex, err := loadLexicon(file)
		if err != nil {
			return err
		}

		if asYAML {
			data, err := lexicon.Marshal(lex)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		}
		printLexicon(os.Stdout, lex)
		return nil
	},
}

func init() {
	lexiconShowCmd.Flags().String("file", "", "YAML lexicon to inspect instead of the configured one")
	lexiconShowCmd.Flags().Bool("yaml", false, "print the full lexicon as YAML")
	lexiconCmd.AddCommand(lexiconShowCmd)
}

func printLexicon(w io.Writer, lex *lexicon.Lexicon) {
	fmt.Fprintf(w, "%s %s\n\n", colorize(colorBold, "Lexicon version:"), lex.Version)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TRAIT\tWEIGHT\tKEYWORDS")
	for _, c := range lex.Traits {
		fmt.Fprintf(tw, "%s\t%.2f\t%d\n", c.Name, c.EffectiveWeight(), len(c.Keywords))
	}
	fmt.Fprintln(tw, "\t\t")
	fmt.Fprintln(tw, "TOPIC\t\tKEYWORDS")
	for _, c := range lex.Topics {
		fmt.Fprintf(tw, "%s\t\t%d\n", c.Name, len(c.Keywords))
	}
	tw.Flush()

	t := lex.Tuning
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Sentiment words: %d positive, %d negative\n", len(lex.PositiveWords), len(lex.NegativeWords))
	fmt.Fprintf(w, "Formality markers: %d formal, %d informal\n", len(lex.FormalMarkers), len(lex.InformalMarkers))
	fmt.Fprintf(w, "Trait threshold %.1f, scale %.1f; topic threshold %d, multiplier %d; community weight %d; interest cap %d\n",
		t.TraitThreshold, t.TraitScale, t.TopicThreshold, t.TopicMultiplier, t.CommunityWeight, t.InterestCap)
}
