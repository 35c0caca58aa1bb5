package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trackpub/domain/model"
	"trackpub/domain/repository"
	"trackpub/infrastructure/assets"
	"trackpub/infrastructure/cache"
	youtubeclient "trackpub/infrastructure/clients/youtube"
	"trackpub/infrastructure/configuration"
	"trackpub/infrastructure/events"
	"trackpub/infrastructure/logger"
	"trackpub/infrastructure/persistence"
	"trackpub/infrastructure/pubsub"
	"trackpub/infrastructure/realtime"
	"trackpub/infrastructure/servicebus"
	"trackpub/infrastructure/transcoder"
	httpHandler "trackpub/interfaces/http"
	"trackpub/server"
	"trackpub/usecase"

	"golang.org/x/sync/errgroup"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")

	app := configuration.C.App

	primaryDb, psqlDb, err := InitiateDatabase()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Database initialization failed")
		os.Exit(1)
	}

	// The repositories run against PostgreSQL locally and MSSQL in
	// production; pipelineDb is whichever one is live.
	pipelineDb := psqlDb
	usingMSSQL := psqlDb == nil
	if usingMSSQL {
		pipelineDb = primaryDb
	}

	if usingMSSQL {
		if err := persistence.EnsurePipelineSchemaMSSQL(pipelineDb); err != nil {
			logger.GetLogger().WithField("error", err).Error("Failed ensuring pipeline schema (mssql)")
			os.Exit(1)
		}
	} else {
		if err := persistence.EnsurePipelineSchema(pipelineDb); err != nil {
			logger.GetLogger().WithField("error", err).Error("Failed ensuring pipeline schema")
			os.Exit(1)
		}
	}

	mongoDb, err := persistence.NewMongoDb(
		configuration.C.Database.Mongo.Host,
		configuration.C.Database.Mongo.Port,
		configuration.C.Database.Mongo.User,
		configuration.C.Database.Mongo.Password,
		configuration.C.Database.Mongo.Name,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - continuing without health history")
		mongoDb = nil
	} else if err := mongoDb.Ping(ctx, nil); err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed - continuing without health history")
		mongoDb = nil
	}

	pubSubClient, err := pubsub.NewPubSub(ctx, configuration.C.Pubsub.ProjectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("PubSub not available - events will not be published there")
		pubSubClient = nil
	}
	azServiceBusClient, err := servicebus.NewServiceBus(ctx, configuration.C.ServiceBus.Namespace)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - events will not be published there")
		azServiceBusClient = nil
	}
	redisClient, _ := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", configuration.C.RedisClient.Host, configuration.C.RedisClient.Port),
		configuration.C.RedisClient.Username,
		configuration.C.RedisClient.Password,
		configuration.C.RedisClient.DatabaseName,
	)
	if redisClient == nil {
		logger.GetLogger().Warn("Redis not available - publish locking degrades to single-instance mode")
	}

	// Repository wiring per vendor.
	var trackRepo repository.ITrack
	var accountRepo repository.IAccount
	var receiptRepo repository.IWebhookReceipt
	var jobRepo repository.ITrackJob
	if usingMSSQL {
		trackRepo = persistence.NewTrackRepositoryMSSQL(pipelineDb)
		accountRepo = persistence.NewAccountRepositoryMSSQL(pipelineDb)
		receiptRepo = persistence.NewWebhookReceiptRepositoryMSSQL(pipelineDb)
		jobRepo = persistence.NewJobRepositoryMSSQL(pipelineDb)
	} else {
		trackRepo = persistence.NewTrackRepository(pipelineDb)
		accountRepo = persistence.NewAccountRepository(pipelineDb)
		receiptRepo = persistence.NewWebhookReceiptRepository(pipelineDb)
		jobRepo = persistence.NewJobRepository(pipelineDb)
	}
	healthRepo := persistence.NewHealthRepository(mongoDb, pipelineDb)

	storage, err := assets.NewDiskStorage(configuration.C.Storage.Root)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot initialize asset storage")
		os.Exit(1)
	}
	fetcher := assets.NewFetcher(storage)
	ffmpeg := transcoder.NewFFmpeg(os.Getenv("FFMPEG_BIN"), storage.Root())

	emitter := events.NewEmitter(
		pubsub.NewEventPubSub(pubSubClient),
		servicebus.NewEventServiceBus(azServiceBusClient),
		configuration.C.Pubsub.Topic,
		configuration.C.ServiceBus.Queue,
	)
	trackLock := cache.NewTrackLock(redisClient)
	hub := realtime.NewTrackHub()
	broadcast := func(track *model.Track) { hub.BroadcastTrackStatus(track) }

	publishCfg := configuration.C.Publish
	_, _, publishTimeout := configuration.C.Jobs.PublishPolicy()
	settings := usecase.PublishSettings{
		PrivacyStatus: publishCfg.PrivacyStatus,
		CategoryID:    publishCfg.CategoryID,
		MadeForKids:   publishCfg.MadeForKids,
		IsShort:       publishCfg.IsShort,
		BaseTags:      publishCfg.BaseTags,
		Attribution:   publishCfg.Attribution,
		PlaylistTitle: publishCfg.PlaylistTitle,
		LockTTL:       publishTimeout,
	}

	ytCfg, err := configuration.GetYouTubeConfig()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot load YouTube configuration")
		os.Exit(1)
	}

	var publisherFactory usecase.PublisherFactory
	if publishCfg.Strategy == "session" {
		studioCfg := configuration.GetStudioConfig()
		publisherFactory = usecase.SessionPublisherFactory(studioCfg.Host, studioCfg.Username, studioCfg.Password)
	} else {
		publisherFactory = usecase.OAuthPublisherFactory(accountRepo, ytCfg.ClientID, ytCfg.ClientSecret, ytCfg.RedirectURL)
	}
	logger.GetLogger().WithField("strategy", publishCfg.Strategy).Info("Publish strategy selected")

	processMax, processBackoff, processTimeout := configuration.C.Jobs.ProcessPolicy()
	publishMax, publishBackoff, _ := configuration.C.Jobs.PublishPolicy()
	policies := map[string]model.JobPolicy{
		model.JobKindProcess: {MaxAttempts: processMax, Backoff: processBackoff, AttemptTimeout: processTimeout},
		model.JobKindPublish: {MaxAttempts: publishMax, Backoff: publishBackoff, AttemptTimeout: publishTimeout},
	}

	processUC := usecase.NewProcessUsecase(trackRepo, fetcher, ffmpeg, emitter, broadcast)
	publishUC := usecase.NewPublishUsecase(trackRepo, accountRepo, trackLock, emitter, publisherFactory, settings, broadcast)
	jobUC := usecase.NewJobUsecase(jobRepo, trackRepo, processUC, publishUC, policies)
	trackUC := usecase.NewTrackUsecase(trackRepo, jobUC)
	webhookUC := usecase.NewWebhookUsecase(receiptRepo, trackRepo, jobUC, broadcast)
	accountUC := usecase.NewAccountUsecase(accountRepo, youtubeclient.OAuthConfig(ytCfg.ClientID, ytCfg.ClientSecret, ytCfg.RedirectURL))
	analyticsUC := usecase.NewAnalyticsUsecase(trackRepo, publisherFactory)

	trackHandler := httpHandler.NewTrackHandler(trackUC, publishUC, hub)
	accountHandler := httpHandler.NewAccountHandler(accountUC)
	webhookHandler := httpHandler.NewWebhookHandler(webhookUC)
	healthHandler := httpHandler.NewHealthHandler(healthRepo)

	router := server.InitiateRouter(trackHandler, accountHandler, webhookHandler, healthHandler, app.SecretKey)

	// Background job runner.
	jobsCfg := configuration.C.Jobs
	g.Go(func() error {
		ticker := time.NewTicker(time.Duration(jobsCfg.PollInterval) * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := jobUC.RunPending(ctx, jobsCfg.BatchSize); err != nil && !errors.Is(err, context.Canceled) {
					logger.GetLogger().WithField("error", err).Error("Job run failed")
				}
			}
		}
	})

	// Scheduled analytics refresh, for providers that push no webhooks.
	if jobsCfg.AnalyticsInterval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(time.Duration(jobsCfg.AnalyticsInterval) * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					refreshCtx, cancelRefresh := context.WithTimeout(ctx, 2*time.Minute)
					if err := analyticsUC.Refresh(refreshCtx, 100); err != nil {
						logger.GetLogger().WithField("error", err).Warn("Analytics refresh failed")
					}
					cancelRefresh()
				}
			}
		})
	}

	// Daily webhook receipt cleanup.
	retentionDays := configuration.C.Webhook.RetentionDays
	g.Go(func() error {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				cleanupCtx, cancelCleanup := context.WithTimeout(ctx, time.Minute)
				if _, err := webhookUC.CleanupReceipts(cleanupCtx, retentionDays); err != nil {
					logger.GetLogger().WithField("error", err).Warn("Receipt cleanup failed")
				}
				cancelCleanup()
			}
		}
	})

	port := app.Port
	logger.GetLogger().WithFields(map[string]interface{}{"port": port, "tls": app.TLSEnabled}).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}
		if app.TLSEnabled {
			cert := app.TLSCertFile
			key := app.TLSKeyFile
			if cert == "" || key == "" {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
				if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			}
			logger.GetLogger().WithFields(map[string]interface{}{"cert": cert, "key": key}).Info("Serving HTTPS")
			if err := httpServer.ListenAndServeTLS(cert, key); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// InitiateDatabase returns (primaryDB, psqlDB). In production the primary is
// MSSQL and psqlDB is nil; locally the pipeline runs on PostgreSQL and the
// gorm-managed MySQL database stays available for schema experiments.
func InitiateDatabase() (*sql.DB, *sql.DB, error) {
	env := os.Getenv("ENV")
	if v := os.Getenv("DB_VENDOR"); v == "mssql" {
		mssql, err := persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL (DB_VENDOR=mssql)")
			return nil, nil, err
		}
		return mssql, nil, nil
	}
	if env == "production" || env == "prod" {
		mssql, err := persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL (production)")
			return nil, nil, err
		}
		return mssql, nil, nil
	}

	// Local dev: gorm automigrates the MySQL mirror schema; the pipeline
	// itself runs on PostgreSQL.
	if gormDb, err := persistence.NewNativeDb(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("MySQL not available - continuing with PostgreSQL only")
	} else if sqlDb, err := gormDb.DB(); err == nil {
		_ = sqlDb.Close()
	}

	postgres, err := persistence.NewPostgreSQLDB()
	if err != nil {
		return nil, nil, err
	}
	return postgres, postgres, nil
}
