package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/riskpulse-ai/riskpulse/internal/config"
	"github.com/riskpulse-ai/riskpulse/internal/encode"
	"github.com/riskpulse-ai/riskpulse/internal/explain"
	"github.com/riskpulse-ai/riskpulse/internal/mail"
	"github.com/riskpulse-ai/riskpulse/internal/predict"
	"github.com/riskpulse-ai/riskpulse/internal/redact"
	"github.com/riskpulse-ai/riskpulse/internal/risk"
	"github.com/riskpulse-ai/riskpulse/internal/server"
	"github.com/riskpulse-ai/riskpulse/internal/store"
	"github.com/riskpulse-ai/riskpulse/internal/telemetry"
)

func main() {
	addrFlag := flag.String("addr", "", "HTTP listen address (overrides config)")
	configPath := flag.String("config", "riskpulse.yaml", "Path to RiskPulse config file")
	flag.Parse()

	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	addr := cfg.Server.Addr
	if *addrFlag != "" {
		addr = *addrFlag
	}

	ctx := context.Background()

	tel, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
		Protocol: cfg.Telemetry.Protocol,
		Service:  "riskpulse",
		Version:  "dev",
	})
	if err != nil {
		log.Fatalf("failed to init telemetry: %v", err)
	}
	defer tel.Shutdown(ctx)

	encoders, err := encode.Load(cfg.Model.EncodersPath)
	if err != nil {
		log.Fatalf("failed to load encoders: %v", err)
	}

	artifact, err := predict.LoadArtifact(cfg.Model.ArtifactPath)
	if err != nil {
		log.Fatalf("failed to load model artifact: %v", err)
	}
	handle := predict.Resolve(artifact)
	redact.Logf("resolved predictor: kind=%s features=%d", handle.Kind(), handle.ExpectedFeatureCount())

	var st *store.Store
	var sweeper *cron.Cron
	if cfg.Store.Path != "" {
		st, err = store.Open(cfg.Store.Path)
		if err != nil {
			log.Fatalf("failed to open dataset store: %v", err)
		}
		defer st.Close()

		retention := time.Duration(cfg.Store.RetentionDays) * 24 * time.Hour
		sweeper = cron.New()
		if _, err := sweeper.AddFunc(cfg.Store.SweepSchedule, func() {
			n, err := st.PruneOlderThan(retention)
			if err != nil {
				redact.Logf("dataset prune failed: %v", err)
				return
			}
			if n > 0 {
				redact.Logf("pruned %d expired datasets", n)
			}
		}); err != nil {
			log.Fatalf("invalid sweep schedule %q: %v", cfg.Store.SweepSchedule, err)
		}
		sweeper.Start()
		defer sweeper.Stop()
	}

	var explainer explain.Explainer
	if cfg.Explain.Provider == "anthropic" {
		apiKey := os.Getenv(cfg.Explain.APIKeyEnv)
		if apiKey == "" {
			redact.Logf("%s not set, explanations disabled", cfg.Explain.APIKeyEnv)
		} else {
			explainer = explain.NewAnthropic(apiKey, cfg.Explain.Model, cfg.ExplainTimeout())
		}
	}

	var mailer server.Mailer
	if cfg.SMTP.Host != "" {
		mailer = mail.NewSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, os.Getenv(cfg.SMTP.PasswordEnv), cfg.SMTP.From)
	}

	svc := risk.NewService(handle, encoders, explainer, tel)
	srv := server.New(cfg, svc, st, mailer, tel)

	log.Printf("Starting RiskPulse on %s...", addr)
	if err := srv.Start(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
