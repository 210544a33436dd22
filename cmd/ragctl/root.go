package main

import (
	"context"

	"vehicle-rag-be/internal/bootstrap"
	"vehicle-rag-be/internal/config"
	"vehicle-rag-be/internal/pkg/logger"
	"vehicle-rag-be/internal/service"
	"vehicle-rag-be/pkg/database"
	"vehicle-rag-be/pkg/events"

	pktNats "vehicle-rag-be/pkg/nats"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// deps lets tests swap the retrieval stack and the event stream.
type deps struct {
	loadConfig    func() *config.Config
	openRag       func(ctx context.Context, cfg *config.Config, log logger.ILogger) (service.IRagService, func(), error)
	subscribeNats func(ctx context.Context, url string, handler pktNats.EventHandler) error
	newLogger     func(verbose bool) logger.ILogger
}

func defaultDeps() *deps {
	return &deps{
		loadConfig:    config.Load,
		openRag:       openRag,
		subscribeNats: subscribeNats,
		newLogger: func(verbose bool) logger.ILogger {
			return logger.NewConsoleLogger(verbose)
		},
	}
}

// openRag builds the retrieval stack. The records database is opened only for pgvector.
// Ingestions are announced on NATS when NATS_URL is set.
func openRag(ctx context.Context, cfg *config.Config, log logger.ILogger) (service.IRagService, func(), error) {
	if err := cfg.ValidateAI(); err != nil {
		return nil, nil, err
	}

	var db *gorm.DB
	if cfg.VectorStore.Backend == config.BackendPgvector {
		conn, err := database.NewGormDBFromDSN(cfg.Database.Connection, database.PoolConfig{MaxOpenConns: 2}, false)
		if err != nil {
			return nil, nil, err
		}
		db = conn
	}

	var publisher events.Publisher
	var natsPub *pktNats.Publisher
	if cfg.Events.NatsURL != "" {
		pub, err := pktNats.NewPublisher(ctx, cfg.Events.NatsURL)
		if err != nil {
			log.Warn("RAGCTL", "NATS unavailable, ingest events will not be published", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			natsPub = pub
			publisher = pub
		}
	}

	closer := func() {
		if natsPub != nil {
			natsPub.Close()
		}
		if db != nil {
			_ = database.Close(db)
		}
	}

	r, err := bootstrap.NewRetrieval(ctx, cfg, db, publisher, log)
	if err != nil {
		closer()
		return nil, nil, err
	}

	closeAll := func() {
		_ = r.Close()
		closer()
	}
	return r.RagService, closeAll, nil
}

func subscribeNats(ctx context.Context, url string, handler pktNats.EventHandler) error {
	sub, err := pktNats.NewSubscriber(url)
	if err != nil {
		return err
	}
	defer sub.Close()
	return sub.Subscribe(ctx, pktNats.SubjectPrefix+">", "", handler)
}

type rootOptions struct {
	verbose bool
	json    bool
}

func newRootCmd(d *deps) *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "ragctl",
		Short:         "Ingest service manuals and ask questions from the terminal",
		Long:          "ragctl works on the same vector store as the HTTP server, configured through the same environment variables.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")
	cmd.PersistentFlags().BoolVar(&opts.json, "json", false, "print results as JSON")

	cmd.AddCommand(
		newIngestCmd(d, opts),
		newQueryCmd(d, opts),
		newWatchCmd(d, opts),
	)
	return cmd
}
