package main

import (
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"amachain/config"
	"amachain/core/state"
	"amachain/crypto"
	"amachain/gateway"
	"amachain/native/ama"
	"amachain/native/pricing"
	"amachain/native/token"
	"amachain/observability/logging"
	"amachain/rpc"
	"amachain/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	logger := logging.Setup("amad", cfg.Env, cfg.LogDir)

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	vault := ama.ModuleVault()

	tokens := token.NewEngine()
	tokens.SetState(manager)
	if cfg.TokenOwner != "" {
		owner, err := crypto.DecodeAddress(cfg.TokenOwner)
		if err != nil {
			logger.Error("Invalid TokenOwner address", slog.Any("error", err))
			os.Exit(1)
		}
		tokens.SetOwner(owner.Raw())
	}

	prices := pricing.NewRegistry()
	prices.SetState(manager)

	questions := ama.NewEngine()
	questions.SetState(manager)
	questions.SetLedger(token.NewVaultLedger(tokens, vault))
	questions.SetVault(vault)
	questions.SetTimeouts(cfg.FundTimeoutSeconds, cfg.AnswerTimeoutSeconds)

	info := rpc.NodeInfo{
		ProtocolVersion:      cfg.ProtocolVersion,
		FundTimeoutSeconds:   cfg.FundTimeoutSeconds,
		AnswerTimeoutSeconds: cfg.AnswerTimeoutSeconds,
		Vault:                crypto.NewAddress(crypto.AMAPrefix, vault[:]).String(),
	}
	server := rpc.NewServer(questions, prices, tokens, info)

	if cfg.MetricsAddress != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddress, mux); err != nil {
				logger.Error("Metrics endpoint failed", slog.Any("error", err))
			}
		}()
	}

	if cfg.GatewayAddress != "" {
		handler, err := gateway.New("http://127.0.0.1"+cfg.RPCAddress, log.Default())
		if err != nil {
			logger.Error("Failed to build gateway", slog.Any("error", err))
			os.Exit(1)
		}
		go func() {
			logger.Info("Starting REST gateway", slog.String("address", cfg.GatewayAddress))
			if err := http.ListenAndServe(cfg.GatewayAddress, handler); err != nil {
				logger.Error("Gateway failed", slog.Any("error", err))
			}
		}()
	}

	logger.Info("Starting JSON-RPC server",
		slog.String("address", cfg.RPCAddress),
		slog.Uint64("protocolVersion", cfg.ProtocolVersion))
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server failed", slog.Any("error", err))
		os.Exit(1)
	}
}
