package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/matthewbaird/pedigree/internal/activity"
	"github.com/matthewbaird/pedigree/internal/clinical"
	"github.com/matthewbaird/pedigree/internal/config"
	"github.com/matthewbaird/pedigree/internal/editor"
	"github.com/matthewbaird/pedigree/internal/event"
	"github.com/matthewbaird/pedigree/internal/eventbus"
	"github.com/matthewbaird/pedigree/internal/graphql"
	"github.com/matthewbaird/pedigree/internal/identity"
	"github.com/matthewbaird/pedigree/internal/metrics"
	"github.com/matthewbaird/pedigree/internal/ontology"
	"github.com/matthewbaird/pedigree/internal/server"
	"github.com/matthewbaird/pedigree/internal/term"
	"github.com/matthewbaird/pedigree/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv("PEDIGREE_CONFIG"), nil)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger := config.NewLogger(cfg.Log, os.Stderr)

	var store activity.Store = activity.NewMemoryStore()
	if cfg.ActivityDB != "" {
		sqlite, err := activity.OpenSQLite(ctx, cfg.ActivityDB)
		if err != nil {
			log.Fatalf("opening activity store: %v", err)
		}
		defer sqlite.Close()
		store = sqlite
	}

	m := metrics.New()
	bus := eventbus.New(256, logger)
	bus.Subscribe("log", eventbus.NewLogConsumer(logger))
	bus.Subscribe("metrics", eventbus.NewMetricsConsumer(m))
	recorder := event.NewActivityRecorder(store)
	recorder.SetPublisher(bus)

	gql, err := graphql.NewClient(graphql.Config{
		URL:    cfg.GraphQLURL,
		Tokens: graphql.StaticToken(cfg.Token),
	})
	if err != nil {
		log.Fatalf("creating registry client: %v", err)
	}
	registry := clinical.NewRegistry(gql)
	names := ontology.NewClient(ontology.Config{
		OrphaURL: cfg.Ontology.OrphaURL,
		HPOURL:   cfg.Ontology.HPOURL,
		OrphaKey: cfg.Ontology.OrphaKey,
		Language: cfg.Ontology.Language,
	})
	loader := term.NewLoader(names, logger)

	ed, err := editor.New(registry, loader, recorder, editor.Config{
		Identity: identity.Config{
			SpecialtyID:    cfg.SpecialtyID,
			ApplicationURL: cfg.ApplicationURL,
			FindingWidth:   cfg.FindingWidth,
		},
		FamilyPhenopacketID: cfg.FamilyPhenopacketID,
		AllowFreeTextGenes:  cfg.Genes.AllowFreeText,
		Debounce:            cfg.DebounceDelay,
	}, logger)
	if err != nil {
		log.Fatalf("creating editor: %v", err)
	}
	ed.SetMetrics(m)

	syncWorker := worker.NewIdentitySyncWorker(ed.Identity(), recorder, cfg.SyncBatchLimit, logger)
	bus.Subscribe("identity-sync", syncWorker)

	srv := server.New(ed, store, m.Handler(), logger)
	ed.SetPrompter(srv.Hub())
	bus.Subscribe("ws", srv.Hub())

	bus.Start(ctx)
	defer bus.Stop()

	if err := ed.Bootstrap(ctx); err != nil {
		logger.Warn("loading pedigree", "err", err)
	}
	logger.Info("editor ready", "environment", cfg.Environment, "registry", cfg.GraphQLURL)

	if err := server.Run(ctx, cfg.ListenAddr, srv.Handler(), logger); err != nil {
		log.Fatalf("server error: %v", err)
	}

	ed.Close(context.Background())
	syncWorker.Wait()
	loader.Wait()
}
