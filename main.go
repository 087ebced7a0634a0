package main

import (
	"log"

	"github.com/joho/godotenv"

	"dockwatch/adapters/backend"
	"dockwatch/adapters/postgres"
	"dockwatch/adapters/solana"
	"dockwatch/adapters/stream"
	"dockwatch/app"
	"dockwatch/internal"
	"dockwatch/internal/config"
	"dockwatch/internal/httpclient"
	"dockwatch/ports"
	"dockwatch/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.NewDefaultLogger()

	// Optional persistence. Without a DATABASE_URL everything stays in memory.
	var (
		jobRepo    ports.JobRepository
		anchorRepo ports.AnchorRepository
	)
	if cfg.Database.URL != "" {
		db, err := postgres.Connect(cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
		jobRepo = postgres.NewJobRepository(db)
		anchorRepo = postgres.NewAnchorRepository(db)
	} else {
		anchorRepo = app.NewMemoryAnchorRepository()
	}

	store := app.NewJobStore(jobRepo, logger)
	if cfg.Data.UseSampleData {
		logger.Info("sample data mode enabled")
		store.Load(app.SampleJobs())
	}

	backendHTTP := httpclient.New(cfg.Backend.RequestTimeout, cfg.Backend.MaxRetries)
	backendClient := backend.NewClient(cfg.Backend.BaseURL, backendHTTP, logger)

	var watcher *app.Watcher
	if cfg.Backend.WebSocketURL != "" {
		dialer := stream.NewDialer(cfg.Backend.WebSocketURL, logger)
		watcher = app.NewWatcher(dialer, store, logger)
		defer watcher.Stop()
	}

	jobs := app.NewJobService(backendClient, store, watcher, logger)
	analysisService := app.NewAnalysisService(jobs, logger)

	// Anchoring stays disabled unless a signer seed is configured.
	var anchors *app.AnchorService
	if cfg.Chain.SignerSeed != "" {
		signer, err := solana.NewKeypairSigner(cfg.Chain.SignerSeed)
		if err != nil {
			log.Fatalf("Failed to load signer: %v", err)
		}
		rpcHTTP := httpclient.New(cfg.Backend.RequestTimeout, cfg.Chain.BroadcastRetries)
		rpc := solana.NewRPCClient(cfg.Chain.RPCURL, rpcHTTP)
		chain := solana.NewService(rpc, cfg.Chain.Network, cfg.Chain.BlockRefTimeout, cfg.Chain.ConfirmTimeout, logger)
		anchors = app.NewAnchorService(backendClient, chain, anchorRepo, signer, logger)
		logger.Info("anchoring enabled on %s via %s", cfg.Chain.Network, cfg.Chain.RPCURL)
	} else {
		logger.Warn("SOLANA_SIGNER_SEED not set; anchoring routes disabled")
	}

	api := server.NewApp(jobs, analysisService, anchors, logger)
	if err := api.Start(cfg.Server.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
