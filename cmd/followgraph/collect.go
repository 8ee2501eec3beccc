package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"followgraph/pkg/account"
	"followgraph/pkg/auth"
	"followgraph/pkg/collector"
	"followgraph/pkg/config"
	"followgraph/pkg/export"
	"followgraph/pkg/graph"
	"followgraph/pkg/logger"
	"followgraph/pkg/ratelimit"
	"followgraph/pkg/twitter"
	"followgraph/pkg/ui"
	"followgraph/pkg/ui/tui"
)

var (
	depth       int
	relation    string
	format      string
	markVisited string
	profile     string
	useTUI      bool
	rateLimit   int
	maxAttempts int
	noResolve   bool
	overwrite   bool
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect [account] [output]",
	Short: "Collect the follower graph around an account",
	Long: `Collect the follower graph around a seed account.

The seed is expanded by fetching its followers (or friends), then each of
those is expanded in turn until the requested depth is reached. Accounts that
refuse access are kept in the graph but not expanded. When the request budget
is spent the run sleeps until the window resets.

The seed defaults to collect.start_account from the configuration.
The output format follows the file extension (.dot or .json) unless --format
is given.`,
	Example: `  # Two levels of followers around @jack, written as DOT
  followgraph collect @jack jack.dot --depth 2

  # Accounts followed by a numeric id, as JSON, with the interactive view
  followgraph collect 12 graph.json --relation friends --tui`,
	Args: cobra.MaximumNArgs(2),
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().IntVarP(&depth, "depth", "d", 1, "how many levels to expand from the seed")
	collectCmd.Flags().StringVarP(&relation, "relation", "r", config.RelationFollowers, "relation to follow (followers, friends)")
	collectCmd.Flags().StringVarP(&format, "format", "f", "", "output format (dot, json)")
	collectCmd.Flags().StringVar(&markVisited, "mark-visited", config.MarkVisitedEarly, "when an account counts as visited (early, late)")
	collectCmd.Flags().StringVarP(&profile, "account", "a", "", "stored credential profile to use")
	collectCmd.Flags().BoolVar(&useTUI, "tui", false, "show the interactive view")
	collectCmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "local pacing in requests per minute (0 disables)")
	collectCmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "attempts per page request")
	collectCmd.Flags().BoolVar(&noResolve, "no-resolve", false, "do not resolve a screen-name seed to its numeric id")
	collectCmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing output file")
}

// collectFlags returns the flags the user set, keyed as config.MergeCommandLineFlags expects
func collectFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if changed("depth") {
		flags["depth"] = depth
	}
	if changed("relation") {
		flags["relation"] = relation
	}
	if changed("format") {
		flags["format"] = format
	}
	if changed("mark-visited") {
		flags["mark-visited"] = markVisited
	}
	if changed("rate-limit") {
		flags["rate-limit"] = rateLimit
	}
	if changed("max-attempts") {
		flags["max-attempts"] = maxAttempts
	}
	if changed("no-resolve") {
		flags["resolve-seed"] = !noResolve
	}
	if changed("notifications") {
		flags["notifications"] = notifications
	}
	if changed("log-level") {
		flags["log-level"] = logLevel
	}
	return flags
}

func runCollect(cmd *cobra.Command, args []string) error {
	flags := collectFlags(cmd)
	if len(args) == 2 {
		flags["output"] = args[1]
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return err
	}
	seedInput := cfg.Collect.StartAccount
	if len(args) > 0 {
		seedInput = args[0]
	}
	if seedInput == "" {
		return errors.New("no seed account given and collect.start_account is not set")
	}
	seed, err := account.Parse(seedInput)
	if err != nil {
		return err
	}

	if _, set := flags["format"]; !set {
		cfg.Output.Format = string(export.FormatForPath(cfg.Output.Path, export.Format(cfg.Output.Format)))
	}
	if overwrite {
		cfg.Output.OverwriteExisting = true
	}

	// console logs would draw over the TUI
	if useTUI && cfg.Logging.File == "" {
		cfg.Logging.Level = "error"
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger().WithField("run_id", uuid.NewString())

	if err := applyStoredCredentials(cfg, profile, auth.NewManager); err != nil {
		return err
	}

	if !cfg.Output.OverwriteExisting {
		if _, err := os.Stat(cfg.Output.Path); err == nil {
			return fmt.Errorf("%w: %s (use --overwrite)", export.ErrExists, cfg.Output.Path)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier := ui.NewNotifier(ui.NotifyNone)
	if cfg.Notifications.Enabled && !(useTUI && cfg.Notifications.NotificationType == ui.NotifyTerminal) {
		notifier = ui.NewNotifier(cfg.Notifications.NotificationType)
	}

	if !quiet {
		ui.PrintInfo("Seed", seed.String())
		ui.PrintInfo("Relation", cfg.Collect.Relation)
		ui.PrintInfo("Depth", fmt.Sprintf("%d", cfg.Collect.MaxDepth))
		ui.PrintInfo("Output", fmt.Sprintf("%s (%s)", cfg.Output.Path, cfg.Output.Format))
	}

	var reporter ui.Reporter
	var view *tui.TUI
	if useTUI {
		view = tui.NewTUI(seed.String(), cfg.Collect.MaxDepth)
		reporter = view
	} else {
		reporter = ui.NewLineDisplay(os.Stdout, seed.String(), cfg.Collect.MaxDepth, verbose)
	}

	job := &collectJob{cfg: cfg, seed: seed, log: log, reporter: reporter, notifier: notifier}

	if view == nil {
		return job.run(ctx)
	}

	// The TUI owns the terminal; the collection runs beside it and quitting
	// the view cancels the collection.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		err := job.run(ctx)
		done <- err
	}()

	tuiErr := view.Start()
	cancel()
	err = <-done
	if tuiErr != nil {
		log.WithError(tuiErr).Error("TUI exited with error")
	}
	if err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Graph written to %s", cfg.Output.Path))
	return nil
}

// applyStoredCredentials fills in credentials from the credential store when
// the config, environment and flags did not supply any. A named profile is
// always taken from the store.
func applyStoredCredentials(cfg *config.Config, profile string, newManager func() (*auth.Manager, error)) error {
	if profile == "" && cfg.Twitter.HasCredentials() {
		return nil
	}

	manager, err := newManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var creds *auth.Credentials
	if profile != "" {
		creds, err = manager.Retrieve(profile)
	} else {
		creds, err = manager.RetrieveDefault()
	}
	if err != nil {
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			return fmt.Errorf("no API credentials found; run 'followgraph auth login' or set %s and %s",
				auth.EnvConsumerKey, auth.EnvConsumerSecret)
		}
		return err
	}

	cfg.Twitter.ConsumerKey = creds.ConsumerKey
	cfg.Twitter.ConsumerSecret = creds.ConsumerSecret
	cfg.Twitter.BearerToken = creds.BearerToken
	return nil
}

// progressLogInterval is how many expansions pass between progress log lines
const progressLogInterval = 25

// collectJob is one collect run, from traversal to the written file
type collectJob struct {
	cfg      *config.Config
	seed     account.Identifier
	log      logger.Logger
	reporter ui.Reporter
	notifier *ui.Notifier
}

func (j *collectJob) run(ctx context.Context) error {
	g, err := j.collect(ctx)
	if err == nil {
		err = export.Write(j.cfg.Output.Path, export.Format(j.cfg.Output.Format), g, j.cfg.Output.OverwriteExisting)
		if err == nil {
			j.reporter.LogInfo("Wrote %d nodes and %d edges to %s", g.NodeCount(), g.EdgeCount(), j.cfg.Output.Path)
		}
	}
	j.reporter.Done(err)

	if err != nil {
		if j.cfg.Notifications.OnError && !errors.Is(err, context.Canceled) {
			j.notifier.SendError("followgraph", fmt.Sprintf("Collection from %s failed: %v", j.seed, err))
		}
		return err
	}
	if j.cfg.Notifications.OnComplete {
		j.notifier.SendSuccess("followgraph", fmt.Sprintf("Collected %d accounts around %s", g.NodeCount(), j.seed))
	}
	return nil
}

func (j *collectJob) collect(ctx context.Context) (*graph.FollowerGraph, error) {
	client := twitter.NewClient(twitter.ConfigFrom(j.cfg), j.log,
		ratelimit.WithMinWait(j.cfg.RateLimit.MinWait),
		ratelimit.WithWaitHook(j.onWait),
	)

	rel := twitter.Relation(j.cfg.Collect.Relation)
	direction := collector.Inbound
	if rel == twitter.Friends {
		direction = collector.Outbound
	}
	mode, err := collector.ParseMarkMode(j.cfg.Collect.MarkVisited)
	if err != nil {
		return nil, err
	}

	opts := []collector.Option{
		collector.WithMarkMode(mode),
		collector.WithDirection(direction),
		collector.WithLogger(j.log),
		collector.WithProgress(func(p collector.Progress) {
			j.reporter.Progress(p)
			j.reporter.Quota(client.Governor().State())
			if p.Visited%progressLogInterval == 0 {
				logger.LogCollectProgress(j.log, j.seed.String(), p.Visited, p.Edges, p.Pending)
			}
		}),
	}
	if j.cfg.Collect.ResolveSeed {
		opts = append(opts, collector.WithResolver(client))
	}

	src := collector.SourceFunc(func(ctx context.Context, id account.Identifier) ([]account.Identifier, error) {
		return client.FetchIDs(ctx, rel, id)
	})

	j.log.InfoWithFields("Starting collection", map[string]interface{}{
		"seed":         j.seed.String(),
		"relation":     string(rel),
		"depth":        j.cfg.Collect.MaxDepth,
		"mark_visited": mode.String(),
	})

	start := time.Now()
	g, err := collector.New(src, opts...).Collect(ctx, j.seed, j.cfg.Collect.MaxDepth)
	if err != nil {
		return nil, err
	}

	stats := client.Governor().Stats()
	j.log.InfoWithFields("Collection finished", map[string]interface{}{
		"nodes":    g.NodeCount(),
		"edges":    g.EdgeCount(),
		"requests": stats.Consumed,
		"waits":    stats.Waits,
		"waited":   stats.Waited.String(),
		"duration": time.Since(start).String(),
	})
	if top := topFollowed(g, 5); len(top) > 0 {
		j.log.InfoWithFields("Most followed accounts", map[string]interface{}{"top": top})
	}
	return g, nil
}

// topFollowed lists up to n accounts with the most incoming edges
func topFollowed(g *graph.FollowerGraph, n int) []string {
	var out []string
	for _, d := range g.InDegrees() {
		if len(out) == n || d.In == 0 {
			break
		}
		out = append(out, fmt.Sprintf("%s (%d)", g.Label(d.Account), d.In))
	}
	return out
}

func (j *collectJob) onWait(ev ratelimit.WaitEvent) {
	j.reporter.RateLimitWait(ev)
	if j.cfg.Notifications.OnRateLimit {
		j.notifier.SendNotification("followgraph", fmt.Sprintf("Rate limit reached, resuming at %s", ev.ResetAt.Format("15:04:05")))
	}
}
