// Command resolvecli is the host CLI for the stack enumerator: it loads
// a package index and a set of requirements, builds the InputTable via
// internal/catalog, optionally presolves feasibility, drains the
// Enumerator to a chosen sink, and optionally records the run to an
// audit store and a live monitor dashboard.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/thoth-station/stackresolver"
	"github.com/thoth-station/stackresolver/internal/audit"
	"github.com/thoth-station/stackresolver/internal/catalog"
	"github.com/thoth-station/stackresolver/internal/monitor"
	"github.com/thoth-station/stackresolver/internal/presolve"
	"github.com/thoth-station/stackresolver/internal/sink"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "resolvecli",
		Short:        "Enumerate installable package stacks",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			logger := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
				ReportTimestamp: true,
				TimeFormat:      "15:04:05.00",
				Level:           level,
			})
			cmd.SetContext(withLogger(cmd.Context(), logger))
			return initConfig(logger)
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.AddCommand(newSolveCmd())
	return root
}

// initConfig wires viper to look for a "resolvecli" config file in the
// working directory and the user's config dir, and watches it for
// changes via fsnotify, logging each change. The config values are not
// bound to the solve command's flags, so they do not change any setting;
// every setting comes from its CLI flag. A missing config file is not an
// error.
func initConfig(logger *charmlog.Logger) error {
	viper.SetConfigName("resolvecli")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		viper.AddConfigPath(dir)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("resolvecli: read config: %w", err)
		}
	}

	viper.OnConfigChange(func(e fsnotify.Event) {
		logger.Info("config file changed, reloading", "path", e.Name)
	})
	viper.WatchConfig()
	return nil
}

type loggerKeyType struct{}

var loggerKey = loggerKeyType{}

func withLogger(ctx context.Context, l *charmlog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

func loggerFromContext(ctx context.Context) *charmlog.Logger {
	if l, ok := ctx.Value(loggerKey).(*charmlog.Logger); ok {
		return l
	}
	return charmlog.Default()
}

func newSolveCmd() *cobra.Command {
	var (
		indexPath   string
		reqsPath    string
		format      string
		sinkKind    string
		redisAddr   string
		redisStream string
		presolveOn  bool
		auditURI    string
		monitorAddr string
		outPath     string
	)

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Enumerate every installable stack satisfying a set of requirements",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd.Context(), solveOptions{
				indexPath:   indexPath,
				reqsPath:    reqsPath,
				format:      format,
				sinkKind:    sinkKind,
				redisAddr:   redisAddr,
				redisStream: redisStream,
				presolveOn:  presolveOn,
				auditURI:    auditURI,
				monitorAddr: monitorAddr,
				outPath:     outPath,
			})
		},
	}

	cmd.Flags().StringVar(&indexPath, "index", "", "path to the package index file")
	cmd.Flags().StringVar(&reqsPath, "reqs", "", "path to the requirements file")
	cmd.Flags().StringVar(&format, "format", "json", "index/requirements format: json or toml")
	cmd.Flags().StringVar(&sinkKind, "sink", "pipe", "output sink: pipe or redis")
	cmd.Flags().StringVar(&redisAddr, "redis-addr", "localhost:6379", "redis address when --sink=redis")
	cmd.Flags().StringVar(&redisStream, "redis-stream", "stackresolver", "redis stream key when --sink=redis")
	cmd.Flags().BoolVar(&presolveOn, "presolve", true, "run a SAT feasibility precheck before enumerating")
	cmd.Flags().StringVar(&auditURI, "audit-uri", "", "mongodb URI to record this run's outcome (optional)")
	cmd.Flags().StringVar(&monitorAddr, "monitor-addr", "", "address to serve live progress on (optional)")
	cmd.Flags().StringVar(&outPath, "out", "-", "output path for --sink=pipe ('-' for stdout)")

	_ = cmd.MarkFlagRequired("index")
	_ = cmd.MarkFlagRequired("reqs")

	return cmd
}

type solveOptions struct {
	indexPath, reqsPath, format      string
	sinkKind, redisAddr, redisStream string
	presolveOn                       bool
	auditURI, monitorAddr, outPath   string
}

func runSolve(ctx context.Context, opts solveOptions) error {
	logger := loggerFromContext(ctx)
	runID := uuid.NewString()
	logger = logger.With("run_id", runID)
	started := time.Now()

	idx, reqs, err := loadCatalogFiles(opts)
	if err != nil {
		logger.Error("failed to load catalog files", "error", err)
		return err
	}

	table, directDeps, _, err := catalog.Compile(idx, reqs)
	if err != nil {
		logger.Error("failed to compile catalog", "error", err)
		return err
	}
	logger.Info("compiled catalog", "packages", table.N(), "direct_deps", len(directDeps))

	var auditStore *audit.Store
	if opts.auditURI != "" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.auditURI))
		if err != nil {
			logger.Error("failed to connect audit store, continuing without it", "error", err)
		} else {
			defer client.Disconnect(ctx)
			auditStore = audit.NewStore(client.Database("stackresolver").Collection("runs"))
		}
	}

	var mon *monitor.Monitor
	if opts.monitorAddr != "" {
		mon = monitor.New()
		srv := monitor.NewServer(opts.monitorAddr, mon)
		go func() {
			if err := srv.ListenAndServe(); err != nil {
				logger.Debug("monitor server stopped", "error", err)
			}
		}()
		logger.Info("monitor listening", "addr", opts.monitorAddr)
	}

	out, closeOut, err := openSink(ctx, opts)
	if err != nil {
		logger.Error("failed to open sink", "error", err)
		return err
	}
	defer closeOut()

	enumOpts := stackresolver.Options{}
	if opts.presolveOn {
		enumOpts.Presolver = presolve.New()
	}

	enum, err := stackresolver.New(directDeps, edgesFromTable(table), typesFromTable(table), table.N(), out, enumOpts)
	if err != nil {
		logger.Error("failed to construct enumerator", "error", err)
		return err
	}
	defer enum.Close()

	drainErr := drainWithProgress(enum, mon)

	run := audit.Run{
		RunID:         runID,
		StartedAt:     started,
		FinishedAt:    time.Now(),
		PackageCount:  table.N(),
		StacksEmitted: enum.Stats.StacksEmitted,
		StatesPruned:  enum.Stats.StatesPruned,
	}
	if drainErr != nil {
		run.Err = drainErr.Error()
	}
	if recErr := auditStore.Record(ctx, run); recErr != nil {
		logger.Error("failed to record audit entry", "error", recErr)
	}

	if drainErr != nil {
		logger.Error("drain failed", "error", drainErr)
		return drainErr
	}

	logger.Info("run complete",
		"stacks_emitted", enum.Stats.StacksEmitted,
		"states_pruned", enum.Stats.StatesPruned,
		"duration", time.Since(started),
	)
	return nil
}

// loadCatalogFiles parses the index and requirements files concurrently,
// using conc's panic-safe WaitGroup rather than a raw sync.WaitGroup.
func loadCatalogFiles(opts solveOptions) (catalog.Index, catalog.Requirements, error) {
	var (
		idx     catalog.Index
		reqs    catalog.Requirements
		idxErr  error
		reqsErr error
	)

	var wg conc.WaitGroup
	wg.Go(func() {
		f, err := os.Open(opts.indexPath)
		if err != nil {
			idxErr = fmt.Errorf("open index file: %w", err)
			return
		}
		defer f.Close()
		if opts.format == "toml" {
			idx, idxErr = catalog.DecodeIndexTOML(f)
		} else {
			idx, idxErr = catalog.DecodeIndexJSON(f)
		}
	})
	wg.Go(func() {
		f, err := os.Open(opts.reqsPath)
		if err != nil {
			reqsErr = fmt.Errorf("open requirements file: %w", err)
			return
		}
		defer f.Close()
		if opts.format == "toml" {
			reqs, reqsErr = catalog.DecodeRequirementsTOML(f)
		} else {
			reqs, reqsErr = catalog.DecodeRequirementsJSON(f)
		}
	})
	wg.Wait()

	if idxErr != nil {
		return catalog.Index{}, catalog.Requirements{}, idxErr
	}
	if reqsErr != nil {
		return catalog.Index{}, catalog.Requirements{}, reqsErr
	}
	return idx, reqs, nil
}

func openSink(ctx context.Context, opts solveOptions) (stackresolver.Sink, func(), error) {
	switch opts.sinkKind {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: opts.redisAddr})
		return sink.NewRedisStream(ctx, client, opts.redisStream), func() { client.Close() }, nil
	case "pipe", "":
		if opts.outPath == "-" || opts.outPath == "" {
			return sink.NewWriter(os.Stdout), func() {}, nil
		}
		f, err := os.Create(opts.outPath)
		if err != nil {
			return nil, func() {}, fmt.Errorf("create output file: %w", err)
		}
		return sink.NewWriter(f), func() { f.Close() }, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown sink kind %q", opts.sinkKind)
	}
}

func edgesFromTable(table *stackresolver.InputTable) []stackresolver.Edge {
	var edges []stackresolver.Edge
	for p := 0; p < table.N(); p++ {
		from := stackresolver.PackageID(p)
		for _, to := range table.DepsOf(from) {
			edges = append(edges, stackresolver.Edge{From: from, To: to})
		}
	}
	return edges
}

func typesFromTable(table *stackresolver.InputTable) []stackresolver.TypeID {
	types := make([]stackresolver.TypeID, table.N())
	for p := range types {
		types[p] = table.TypeOf(stackresolver.PackageID(p))
	}
	return types
}

// drainWithProgress runs enum to completion. When mon is set it steps one
// stack at a time and publishes a Snapshot after each, giving connected
// dashboards live updates; otherwise it drains in one call.
func drainWithProgress(enum *stackresolver.Enumerator, mon *monitor.Monitor) error {
	if mon == nil {
		return enum.Drain()
	}
	for {
		more, err := enum.Step()
		mon.Publish(monitor.Snapshot{
			StacksEmitted: enum.Stats.StacksEmitted,
			StatesPruned:  enum.Stats.StatesPruned,
			FrontierDepth: enum.FrontierDepth(),
		})
		if err != nil {
			return fmt.Errorf("stackresolver: drain: %w", err)
		}
		if !more {
			return nil
		}
	}
}
