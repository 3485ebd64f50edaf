package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/fundify/indexer/internal/common"
	"github.com/fundify/indexer/internal/config"
	"github.com/fundify/indexer/internal/contract"
	"github.com/fundify/indexer/internal/db"
	"github.com/fundify/indexer/internal/decoder"
	"github.com/fundify/indexer/internal/downloader"
	"github.com/fundify/indexer/internal/events"
	"github.com/fundify/indexer/internal/fetcher"
	"github.com/fundify/indexer/internal/logger"
	"github.com/fundify/indexer/internal/metadata"
	"github.com/fundify/indexer/internal/metrics"
	"github.com/fundify/indexer/internal/migrations"
	"github.com/fundify/indexer/internal/projection"
	"github.com/fundify/indexer/internal/readmodel"
	"github.com/fundify/indexer/internal/rpc"
	itypes "github.com/fundify/indexer/internal/types"
	"github.com/fundify/indexer/pkg/api"
	pkgconfig "github.com/fundify/indexer/pkg/config"
	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	version = "1.0.0"
	banner  = `
╔═══════════════════════════════════════════╗
║          Fundify Indexer v%s           ║
║   Crowdfunding contract event projector   ║
╚═══════════════════════════════════════════╝
`
)

var (
	configPath string
	resetBlock uint64
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "indexer",
	Short: "Fundify Indexer - crowdfunding contract event indexer",
	Long: `Fundify Indexer tails the event log of the Fundify crowdfunding contract and
projects projects, investments, voting cycles and votes into a relational read model,
served by a read-only HTTP API.`,
	Version:      version,
	SilenceUsage: true,
	RunE:         runIndexer,
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List the contract events with a projection",
	Run: func(cmd *cobra.Command, _ []string) {
		contractABI := contract.MustLoad()
		for _, name := range events.Names() {
			cmd.Printf("  - %s\n", contractABI.Events[name].Sig)
		}
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the configuration file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reflector := &jsonschema.Reflector{
			FieldNameTag:               "json",
			RequiredFromJSONSchemaTags: true,
		}

		schema := reflector.Reflect(&pkgconfig.Config{})
		schema.Title = "Fundify Indexer configuration"

		out, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode schema: %w", err)
		}

		cmd.Println(string(out))
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Move the checkpoint back to a block so the next run reindexes from there",
	Long: `Move the checkpoint back to the given block. The read model is left untouched;
with projection.deduplicate enabled the reindexed logs that were already applied are skipped.`,
	RunE: runReset,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to configuration file (environment only when empty)")

	resetCmd.Flags().Uint64Var(&resetBlock, "block", 0, "last block considered indexed after the reset")
	_ = resetCmd.MarkFlagRequired("block")

	rootCmd.AddCommand(eventsCmd, schemaCmd, resetCmd)
}

func loadConfig() (*pkgconfig.Config, error) {
	if configPath == "" {
		return config.LoadFromEnv()
	}

	return config.LoadFromFile(configPath)
}

func componentLogger(cfg *pkgconfig.Config, component string) *logger.Logger {
	return logger.NewComponentLoggerFromConfig(component, cfg.Logging)
}

// openStore opens the read-model database and brings its schema up to date.
func openStore(cfg *pkgconfig.Config, log *logger.Logger) (*db.DB, error) {
	database, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := migrations.RunMigrations(log, database); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return database, nil
}

func runIndexer(_ *cobra.Command, _ []string) error {
	fmt.Printf(banner, version)

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, err := logger.NewLogger(cfg.Logging.GetDefaultLevel(), cfg.Logging.IsDevelopment())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	logger.SetDefaultLogger(log)
	defer func() { _ = log.Sync() }()

	contractABI, err := contract.Load(cfg.Contract.ABIPath)
	if err != nil {
		return err
	}
	if err := events.VerifyABI(contractABI); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	finality, err := itypes.ParseBlockFinality(cfg.Downloader.Finality)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	contractAddress := ethcommon.HexToAddress(cfg.Contract.Address)

	log.Info("Opening read-model store...")
	database, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer database.Close()

	maintenance := db.NewMaintenance(database, cfg.Maintenance, componentLogger(cfg, common.ComponentMaintenance))
	if err := maintenance.Start(ctx); err != nil {
		return fmt.Errorf("failed to start database maintenance: %w", err)
	}
	defer func() {
		if err := maintenance.Stop(); err != nil {
			log.Warnf("Failed to stop database maintenance: %v", err)
		}
	}()

	log.Info("Connecting to Ethereum node...")
	rpcClient, err := rpc.NewClient(ctx, cfg.Downloader)
	if err != nil {
		return fmt.Errorf("failed to create RPC client: %w", err)
	}
	defer rpcClient.Close()
	log.Infof("Connected to Ethereum node: %s", cfg.Downloader.RPCURL)

	logFetcher := fetcher.NewLogFetcher(fetcher.LogFetcherConfig{
		Address:      contractAddress,
		Finality:     finality,
		FinalizedLag: cfg.Downloader.FinalizedLag,
	}, componentLogger(cfg, common.ComponentLogFetcher), rpcClient)

	syncManager := downloader.NewSyncManager(database, contractAddress,
		componentLogger(cfg, common.ComponentSyncManager), maintenance)

	meta, err := metadata.NewSource(cfg.Metadata)
	if err != nil {
		return fmt.Errorf("failed to load placeholder metadata: %w", err)
	}

	store := readmodel.NewStore(database, maintenance)

	projector := projection.New(store, decoder.New(contractABI), meta, syncManager,
		cfg.Projection, componentLogger(cfg, common.ComponentProjection))

	dl, err := downloader.New(cfg.Downloader, cfg.Contract.StartBlock, logFetcher, projector, syncManager,
		componentLogger(cfg, common.ComponentDownloader))
	if err != nil {
		return fmt.Errorf("failed to create downloader: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.API != nil && cfg.API.Enabled {
		apiServer := api.NewServer(cfg.API, store, syncManager, componentLogger(cfg, common.ComponentReadAPI))
		g.Go(func() error { return apiServer.Start(gctx) })
	}

	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics, log)
		g.Go(func() error { return metricsServer.Run(gctx) })
	}

	log.Infof("Indexing contract %s (deduplication: %t)", contractAddress.Hex(), cfg.Projection.DeduplicationEnabled())

	g.Go(func() error { return dl.Run(gctx) })

	if err := g.Wait(); err != nil {
		return fmt.Errorf("indexer failed: %w", err)
	}

	log.Infof("Fundify Indexer stopped at block %d", dl.Cursor())
	return nil
}

func runReset(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := componentLogger(cfg, common.ComponentSyncManager)

	database, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer database.Close()

	syncManager := downloader.NewSyncManager(database, ethcommon.HexToAddress(cfg.Contract.Address), log, nil)

	state, err := syncManager.Initialize(cmd.Context())
	if err != nil {
		return err
	}

	if err := syncManager.Reset(cmd.Context(), resetBlock); err != nil {
		return err
	}

	cmd.Printf("checkpoint moved from block %d to block %d\n", state.LastIndexedBlock, resetBlock)
	return nil
}
