package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/KilimcininKorOglu/oba-pagedresults/internal/backend"
	"github.com/KilimcininKorOglu/oba-pagedresults/internal/config"
	"github.com/KilimcininKorOglu/oba-pagedresults/internal/ldap"
	"github.com/KilimcininKorOglu/oba-pagedresults/internal/logging"
	"github.com/KilimcininKorOglu/oba-pagedresults/internal/pagedresults"
	"github.com/KilimcininKorOglu/oba-pagedresults/internal/server"
)

// errLeak is returned when the backend still holds result sets after
// every connection closed, or saw a result set released twice.
var errLeak = errors.New("result set accounting mismatch")

// simulateCmd handles the simulate command.
func simulateCmd(args []string) int {
	fs := pflag.NewFlagSet("simulate", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	configFile := fs.StringP("config", "c", "", "Path to configuration file")
	connections := fs.Int("connections", 0, "Client connections (overrides config)")
	searches := fs.Int("searches", 0, "Paged searches per connection (overrides config)")
	pageSize := fs.Int("page-size", 0, "Requested page size (overrides config)")
	abandonRate := fs.Float64("abandon-rate", -1, "Probability of abandoning after a page (overrides config)")
	rps := fs.Float64("rps", -1, "Requests per second, 0 for unlimited (overrides config)")
	filterStr := fs.String("filter", "", "Search filter (overrides config)")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	help := fs.BoolP("help", "h", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *help {
		printSimulateUsage(os.Stdout)
		return 0
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	// Apply command-line overrides
	if fs.Changed("connections") {
		cfg.Simulation.Connections = *connections
	}
	if fs.Changed("searches") {
		cfg.Simulation.SearchesPerConn = *searches
	}
	if fs.Changed("page-size") {
		cfg.Simulation.PageSize = *pageSize
	}
	if fs.Changed("abandon-rate") {
		cfg.Simulation.AbandonRate = *abandonRate
	}
	if fs.Changed("rps") {
		cfg.Simulation.RequestsPerSecond = *rps
	}
	if fs.Changed("filter") {
		cfg.Simulation.Filter = *filterStr
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	if !reportValidation(cfg) {
		return 1
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := simulate(ctx, cfg, logger)
	if stats != nil {
		stats.report(os.Stdout)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Simulation failed: %v\n", err)
		return 1
	}
	return 0
}

// simStats counts what the simulated clients observed.
type simStats struct {
	searches  atomic.Int64
	pages     atomic.Int64
	entries   atomic.Int64
	abandoned atomic.Int64
	cancelled atomic.Int64
	failed    atomic.Int64

	slotsPeak atomic.Int64
	duration  time.Duration
	backend   backend.Stats
}

func (s *simStats) observePeak(n int) {
	for {
		cur := s.slotsPeak.Load()
		if int64(n) <= cur || s.slotsPeak.CompareAndSwap(cur, int64(n)) {
			return
		}
	}
}

func (s *simStats) report(w io.Writer) {
	fmt.Fprintf(w, "Simulation finished in %v\n", s.duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Searches:        %d\n", s.searches.Load())
	fmt.Fprintf(w, "  Pages:           %d\n", s.pages.Load())
	fmt.Fprintf(w, "  Entries:         %d\n", s.entries.Load())
	fmt.Fprintf(w, "  Abandoned:       %d\n", s.abandoned.Load())
	fmt.Fprintf(w, "  Cancelled:       %d\n", s.cancelled.Load())
	fmt.Fprintf(w, "  Failed:          %d\n", s.failed.Load())
	fmt.Fprintf(w, "  Peak slots:      %d\n", s.slotsPeak.Load())
	fmt.Fprintf(w, "  Result sets:     %d released, %d open, %d double releases\n",
		s.backend.Released, s.backend.Open, s.backend.DoubleReleases)
}

// simulate seeds a backend from cfg, runs the configured clients against
// it and tears everything down. The returned stats are valid even when
// an error is returned.
func simulate(ctx context.Context, cfg *config.Config, logger logging.Logger) (*simStats, error) {
	stats := &simStats{}

	mem := backend.NewMemory(cfg.Backend.Name, cfg.Backend.Indexed...)
	if err := backend.Seed(mem, cfg.Backend.BaseDN, cfg.Backend.Entries); err != nil {
		return nil, fmt.Errorf("seed backend: %w", err)
	}
	filter, err := backend.ParseFilter(cfg.Simulation.Filter)
	if err != nil {
		return nil, err
	}

	srv := server.NewServer(mem, cfg.Paging, server.WithLogger(logger))

	limit := rate.Inf
	if cfg.Simulation.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.Simulation.RequestsPerSecond)
	}
	limiter := rate.NewLimiter(limit, max(cfg.Simulation.Connections, 1))

	logger.Info("simulation starting",
		"entries", mem.Len(),
		"connections", cfg.Simulation.Connections,
		"searches", cfg.Simulation.SearchesPerConn,
		"pageSize", cfg.Simulation.PageSize,
		"filter", filter.String(),
	)

	start := time.Now()
	pollCtx, stopPoll := context.WithCancel(ctx)
	pollDone := make(chan struct{})
	go func() {
		defer close(pollDone)
		srv.Run(pollCtx, time.Second)
	}()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Simulation.Connections; i++ {
		cl := &client{
			conn:    srv.Connect(),
			cfg:     cfg.Simulation,
			filter:  filter,
			limiter: limiter,
			rng:     rand.New(rand.NewSource(int64(i) + 1)),
			stats:   stats,
		}
		g.Go(func() error {
			return cl.run(gctx)
		})
	}
	runErr := g.Wait()

	stopPoll()
	<-pollDone
	srv.Shutdown()

	stats.duration = time.Since(start)
	stats.backend = mem.Stats()

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return stats, runErr
	}
	if stats.backend.Open != 0 || stats.backend.DoubleReleases != 0 {
		return stats, fmt.Errorf("%w: %d open, %d double releases", errLeak, stats.backend.Open, stats.backend.DoubleReleases)
	}
	return stats, nil
}

// client drives paged searches over one connection.
type client struct {
	conn    *server.Connection
	cfg     config.SimulationConfig
	filter  backend.Filter
	limiter *rate.Limiter
	rng     *rand.Rand
	stats   *simStats
	msgID   int32
}

func (cl *client) run(ctx context.Context) error {
	for n := 0; n < cl.cfg.SearchesPerConn; n++ {
		if err := cl.pagedSearch(ctx); err != nil {
			return err
		}
		cl.stats.searches.Add(1)
	}
	return nil
}

// pagedSearch walks one search to its last page, abandoning it part way
// through with probability AbandonRate.
func (cl *client) pagedSearch(ctx context.Context) error {
	var cookie []byte
	for {
		if err := cl.limiter.Wait(ctx); err != nil {
			return err
		}

		cl.msgID++
		value, err := pagedresults.EncodeControlValue(int32(cl.cfg.PageSize), cookie)
		if err != nil {
			return err
		}
		resp, err := cl.conn.Search(ctx, &server.SearchRequest{
			MessageID: cl.msgID,
			Filter:    cl.filter,
			Controls:  ldap.Controls{{OID: ldap.OIDPagedResults, Value: value}},
		})
		if err != nil {
			return err
		}

		switch resp.ResultCode {
		case ldap.ResultSuccess:
		case ldap.ResultCancelled:
			cl.stats.cancelled.Add(1)
			return nil
		default:
			cl.stats.failed.Add(1)
			return nil
		}

		cl.stats.pages.Add(1)
		cl.stats.entries.Add(int64(len(resp.Entries)))
		cl.observeSlots()

		ctrl, ok := resp.Controls.Get(ldap.OIDPagedResults)
		if !ok {
			return fmt.Errorf("msgid %d: response without paged results control", cl.msgID)
		}
		_, next, err := pagedresults.DecodeControlValue(ctrl.Value)
		if err != nil {
			return err
		}
		if len(next) == 0 {
			return nil
		}

		if cl.rng.Float64() < cl.cfg.AbandonRate {
			cl.conn.Abandon(cl.msgID)
			cl.stats.abandoned.Add(1)
		}
		cookie = next
	}
}

func (cl *client) observeSlots() {
	l := cl.conn.Paged().Lock()
	n := l.Cap()
	l.Unlock()
	cl.stats.observePeak(n)
}
