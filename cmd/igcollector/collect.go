package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"igcollector/internal/worker"
	"igcollector/pkg/auth"
	"igcollector/pkg/collector"
	"igcollector/pkg/logger"
	"igcollector/pkg/ui"
)

var (
	collectWorkers  int
	collectStories  bool
	collectFeed     bool
	collectMaxPosts int
	simFailureRate  float64
	simLatency      time.Duration
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect <target>...",
	Short: "Run collection tasks across the account pool",
	Long: `Run collection tasks for one or more target profiles. Tasks are fanned
out over a worker pool; each worker leases an account, performs the
collection, and returns the account with the task's outcome.

Collections run against the simulated backend, which fabricates results and
injects failures at the configured rate. It exercises the complete account
lifecycle: pacing, cooldown, quarantine, and recovery.`,
	Example: `  # Collect two profiles with 5 workers
  igcollector collect profile_a profile_b --workers 5

  # Stress the pool with a 30% failure rate
  igcollector collect profile_a --failure-rate 0.3`,
	Args: cobra.MinimumNArgs(1),
	Run:  runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)
	collectCmd.Flags().IntVar(&collectWorkers, "workers", 0, "number of concurrent workers (default from config)")
	collectCmd.Flags().BoolVar(&collectStories, "stories", true, "collect stories")
	collectCmd.Flags().BoolVar(&collectFeed, "feed", true, "collect feed posts")
	collectCmd.Flags().IntVar(&collectMaxPosts, "max-posts", 0, "cap on feed posts per target (default from config)")
	collectCmd.Flags().Float64Var(&simFailureRate, "failure-rate", 0, "simulated failure probability in [0,1]")
	collectCmd.Flags().DurationVar(&simLatency, "latency", 300*time.Millisecond, "simulated collection latency")
}

func runCollect(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	p, _, err := openPool(cfg)
	if err != nil {
		ui.PrintError("Failed to open pool", err.Error())
		os.Exit(1)
	}

	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	workers := cfg.Collector.Workers
	if collectWorkers > 0 {
		workers = collectWorkers
	}
	maxPosts := cfg.Collector.MaxFeedPosts
	if collectMaxPosts > 0 {
		maxPosts = collectMaxPosts
	}

	sim := collector.NewSimulated(simFailureRate, simLatency)
	svc := collector.NewService(p, manager, sim, cfg, logger.GetLogger())

	wp := worker.New(workers, svc, cfg.Collector.MaxRetries, logger.GetLogger())
	wp.Start()

	var (
		wg        sync.WaitGroup
		succeeded int
		failed    int
		items     int
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range wp.Results() {
			if result.Err != nil {
				failed++
				ui.PrintWarning("Failed "+result.Job.Request.Username, result.Err.Error())
				continue
			}
			succeeded++
			items += result.Result.ItemCount()
			ui.PrintInfo(result.Job.Request.Username,
				fmt.Sprintf("%d items via %s in %s", result.Result.ItemCount(),
					result.Result.AccountID, result.Duration.Round(time.Millisecond)))
		}
	}()

	for _, target := range args {
		job := worker.Job{Request: collector.Request{
			Username:       target,
			IncludeStories: collectStories,
			IncludeFeed:    collectFeed,
			MaxFeedPosts:   maxPosts,
		}}
		if err := wp.Submit(job); err != nil {
			ui.PrintError("Failed to submit job", err.Error())
		}
	}

	wp.Stop()
	wg.Wait()

	fmt.Println()
	ui.PrintInfo("Completed", fmt.Sprintf("%d", succeeded))
	ui.PrintInfo("Failed", fmt.Sprintf("%d", failed))
	ui.PrintInfo("Items collected", fmt.Sprintf("%d", items))

	if failed > 0 {
		os.Exit(1)
	}
}
