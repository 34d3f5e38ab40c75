package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"reva/internal/app/commands"
	"reva/internal/app/dto"
	bookingapp "reva/internal/app/handlers/booking"
	"reva/internal/app/handlers/dashboard"
	listingapp "reva/internal/app/handlers/listings"
	"reva/internal/app/middleware"
	appoutbox "reva/internal/app/outbox"
	"reva/internal/app/policies"
	"reva/internal/app/projections"
	"reva/internal/app/queries"
	"reva/internal/app/services/concierge"
	"reva/internal/app/services/identity"
	"reva/internal/app/uow"
	domainauth "reva/internal/domain/auth"
	domainbooking "reva/internal/domain/booking"
	"reva/internal/domain/signup"
	domainuser "reva/internal/domain/user"
	"reva/internal/infra/assistant/gemini"
	"reva/internal/infra/broker/kafka"
	redisstore "reva/internal/infra/cache/redis"
	"reva/internal/infra/config"
	mongodb "reva/internal/infra/db/mongo"
	"reva/internal/infra/delivery"
	ginserver "reva/internal/infra/http/gin"
	"reva/internal/infra/inbox"
	"reva/internal/infra/journal/scylla"
	"reva/internal/infra/obs"
	infraoutbox "reva/internal/infra/outbox"
	"reva/internal/infra/security"
	"reva/internal/infra/seed"
	"reva/internal/infra/storage/memory"
	"reva/internal/infra/storage/snapshot"
)

const journalConsumer = "booking-journal"

type outboxQueue interface {
	appoutbox.Store
	infraoutbox.Source
}

type application struct {
	handlers ginserver.Handlers
	health   obs.HealthHandlers
	metrics  *obs.Metrics
	identity *identity.Service
	worker   *infraoutbox.Worker
	consumer *kafka.Consumer
	topics   []string
	closers  []func(context.Context) error
	logger   *slog.Logger
}

// storage is what either persistence backend hands to the rest of the wiring.
type storage struct {
	factory     uow.UoWFactory
	users       domainuser.Repository
	sessions    domainauth.SessionStore
	challenges  signup.ChallengeStore
	idempotency middleware.IdempotencyStore
	outbox      outboxQueue
	journal     policies.BookingJournal
	inbox       inbox.Marker
	checks      []func(context.Context) error
	closers     []func(context.Context) error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	hasher := security.BcryptHasher{}
	ds, err := seed.Default()
	if err != nil {
		return nil, fmt.Errorf("seed dataset: %w", err)
	}

	var st *storage
	switch cfg.StorageDriver {
	case config.DriverMongo:
		st, err = openMongo(ctx, cfg, ds, hasher, logger)
	default:
		st, err = openMemory(ctx, cfg, ds, hasher, logger)
	}
	if err != nil {
		return nil, err
	}
	app := &application{metrics: obs.NewMetrics(), closers: st.closers, logger: logger}
	fail := func(err error) (*application, error) {
		app.Close(context.Background())
		return nil, err
	}

	if cfg.CacheDriver == config.DriverRedis {
		rdb, err := redisstore.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return fail(fmt.Errorf("redis: %w", err))
		}
		st.sessions = redisstore.NewSessionStore(rdb)
		st.challenges = redisstore.NewChallengeStore(rdb)
		st.checks = append(st.checks, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		app.closers = append(app.closers, func(context.Context) error { return rdb.Close() })
		logger.Info("redis session and challenge stores enabled", "addr", cfg.RedisAddr)
	}

	if cfg.JournalDriver == config.DriverScylla {
		session, err := scylla.NewSession(ctx, scylla.Options{
			Hosts:             cfg.ScyllaHosts,
			Keyspace:          cfg.ScyllaKeyspace,
			Username:          cfg.ScyllaUsername,
			Password:          cfg.ScyllaPassword,
			Consistency:       cfg.ScyllaConsistency,
			ReplicationFactor: cfg.ScyllaReplication,
			Timeout:           cfg.ScyllaTimeout,
		}, logger)
		if err != nil {
			return fail(fmt.Errorf("scylla: %w", err))
		}
		st.journal = scylla.NewJournal(session, logger)
		app.closers = append(app.closers, func(context.Context) error {
			session.Close()
			return nil
		})
	}

	policy := domainbooking.ValidationPolicy{
		RequireOrderedDates: cfg.BookingRequireOrderedDates,
		RejectOverlaps:      cfg.BookingRejectOverlaps,
		StrictTransitions:   cfg.BookingStrictTransitions,
	}
	buffer := appoutbox.NewBuffer(st.outbox)
	encoder := appoutbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler[bookingapp.CreateBookingCommand, *dto.BookingSummary](commandBus, bookingapp.CreateBookingCommand{}.Key(), &bookingapp.CreateBookingHandler{
		Policy:  policy,
		Outbox:  buffer,
		Encoder: encoder,
		Logger:  logger,
	})
	commands.RegisterHandler[bookingapp.SetBookingStatusCommand, *dto.BookingSummary](commandBus, bookingapp.SetBookingStatusCommand{}.Key(), &bookingapp.SetBookingStatusHandler{
		Policy:   policy,
		Outbox:   buffer,
		Encoder:  encoder,
		Observer: app.metrics,
		Logger:   logger,
	})

	queryBus := queries.NewInMemoryBus()
	catalog := &listingapp.CatalogHandler{UoWFactory: st.factory}
	catalog.Register(queryBus)
	queries.RegisterHandler[bookingapp.ListBookingsQuery, dto.BookingCollection](queryBus, bookingapp.ListBookingsQuery{}.Key(), &bookingapp.ListBookingsHandler{UoWFactory: st.factory, Logger: logger})
	queries.RegisterHandler[bookingapp.BookingHistoryQuery, *dto.BookingHistory](queryBus, bookingapp.BookingHistoryQuery{}.Key(), &bookingapp.BookingHistoryHandler{UoWFactory: st.factory, Journal: st.journal})
	queries.RegisterHandler[dashboard.SummaryQuery, *dto.Dashboard](queryBus, dashboard.SummaryQuery{}.Key(), &dashboard.SummaryHandler{UoWFactory: st.factory, Logger: logger})

	validator := middleware.NewStructValidator()
	authorizer := middleware.CapabilityAuthorizer{}
	commandPipeline := middleware.ChainCommands(
		commandBus,
		middleware.Validation(validator),
		middleware.Authorization(authorizer),
		middleware.Idempotency(st.idempotency, nil),
		middleware.Transaction(st.factory, nil),
		middleware.OutboxFlush(buffer),
	)
	queryPipeline := middleware.ChainQueries(
		queryBus,
		middleware.QueryValidation(validator),
		middleware.QueryAuthorization(authorizer),
	)

	app.identity = &identity.Service{
		Users:             st.users,
		Sessions:          st.sessions,
		Challenges:        st.challenges,
		Passwords:         hasher,
		Tokens:            security.RandomTokenGenerator{},
		Codes:             security.CodeGenerator{},
		Sender:            codeSender(cfg, logger),
		Observer:          app.metrics,
		SessionTTL:        cfg.SessionTTL,
		SignupCodeTTL:     cfg.SignupCodeTTL,
		SignupMaxAttempts: cfg.SignupMaxAttempts,
		Logger:            logger,
	}

	assistant := &concierge.Service{Catalog: catalog, Logger: logger}
	if cfg.GeminiAPIKey != "" {
		assistant.Model = gemini.NewClient(gemini.Config{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
		}, &http.Client{Timeout: 30 * time.Second})
	} else {
		logger.Warn("assistant model not configured; replies will apologise")
	}

	var projector infraoutbox.EnvelopeHandler = infraoutbox.ProjectTo(&projections.JournalProjector{Journal: st.journal, Logger: logger})
	topic := infraoutbox.TopicFor(cfg.KafkaTopicPrefix, domainbooking.EventRequested)
	var publisher infraoutbox.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return fail(fmt.Errorf("kafka producer: %w", err))
		}
		app.closers = append(app.closers, func(context.Context) error { return producer.Close() })
		publisher = producer

		if st.inbox != nil {
			projector = inbox.Once(st.inbox, projector, logger)
		}
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, nil, kafka.EnvelopeMessages{Handler: projector}, logger)
		if err != nil {
			return fail(fmt.Errorf("kafka consumer: %w", err))
		}
		app.consumer = consumer
		app.topics = []string{topic}
		app.closers = append(app.closers, func(context.Context) error { return consumer.Close() })
		logger.Info("kafka relay enabled", "brokers", cfg.KafkaBrokers, "topic", topic)
	} else {
		local := infraoutbox.NewLocalPublisher()
		local.Subscribe(topic, projector)
		publisher = local
	}

	hostname, _ := os.Hostname()
	app.worker = &infraoutbox.Worker{
		Source:      st.outbox,
		Publisher:   publisher,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		ID:          hostname,
		Backoff:     cfg.RetryBackoff,
		Observer:    app.metrics,
		Logger:      logger,
	}

	checks := st.checks
	app.health = obs.HealthHandlers{Ready: func(ctx context.Context) error {
		var errs []error
		for _, check := range checks {
			errs = append(errs, check(ctx))
		}
		return errors.Join(errs...)
	}}

	app.handlers = ginserver.Handlers{
		Auth:           ginserver.AuthHandler{Service: app.identity, Logger: logger},
		Users:          ginserver.UserHandler{Service: app.identity, Logger: logger},
		Listing:        ginserver.ListingHandler{Queries: queryPipeline, Logger: logger},
		Booking:        ginserver.BookingHandler{Commands: commandPipeline, Queries: queryPipeline, Logger: logger},
		Dashboard:      ginserver.DashboardHandler{Queries: queryPipeline, Logger: logger},
		Assistant:      ginserver.AssistantHandler{Service: assistant},
		AuthMiddleware: ginserver.AuthMiddleware{Service: app.identity, Logger: logger}.Handle,
	}
	return app, nil
}

func openMemory(ctx context.Context, cfg config.Config, ds seed.Dataset, hasher seed.Hasher, logger *slog.Logger) (*storage, error) {
	snaps, err := snapshot.Open(ctx, snapshot.Options{
		Driver:          cfg.SnapshotDriver,
		Dir:             cfg.SnapshotDir,
		SQLitePath:      cfg.SQLitePath,
		PostgresDSN:     cfg.PostgresDSN,
		Bucket:          cfg.SnapshotBucket,
		Prefix:          cfg.SnapshotPrefix,
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		UseSSL:          cfg.S3UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot store: %w", err)
	}
	repos, err := memory.Open(ctx, memory.Options{Snapshots: snaps, Dataset: &ds, Hasher: hasher, Logger: logger})
	if err != nil {
		if snaps != nil {
			_ = snaps.Close()
		}
		return nil, fmt.Errorf("memory storage: %w", err)
	}
	st := &storage{
		factory:     repos.Factory,
		users:       repos.Users,
		sessions:    repos.Sessions,
		challenges:  repos.Challenges,
		idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
		outbox:      repos.Outbox,
		journal:     repos.Journal,
	}
	if snaps != nil {
		st.closers = append(st.closers, func(context.Context) error { return snaps.Close() })
		logger.Info("memory storage with snapshots", "driver", cfg.SnapshotDriver)
	}
	return st, nil
}

func openMongo(ctx context.Context, cfg config.Config, ds seed.Dataset, hasher seed.Hasher, logger *slog.Logger) (*storage, error) {
	client, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	st := &storage{
		checks:  []func(context.Context) error{client.Ping},
		closers: []func(context.Context) error{client.Close},
	}
	fail := func(err error) (*storage, error) {
		_ = client.Close(context.Background())
		return nil, err
	}
	if err := mongodb.Seed(ctx, client, ds, hasher, logger); err != nil {
		return fail(fmt.Errorf("mongo seed: %w", err))
	}
	users, err := mongodb.NewUserRepository(ctx, client.DB)
	if err != nil {
		return fail(fmt.Errorf("mongo users: %w", err))
	}
	idem, err := mongodb.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
	if err != nil {
		return fail(fmt.Errorf("mongo idempotency: %w", err))
	}
	queue, err := infraoutbox.NewMongoStore(ctx, client.DB)
	if err != nil {
		return fail(fmt.Errorf("mongo outbox: %w", err))
	}
	marks, err := inbox.NewStore(ctx, client.DB, journalConsumer)
	if err != nil {
		return fail(fmt.Errorf("mongo inbox: %w", err))
	}
	st.factory = mongodb.Factory{
		DB:           client.DB,
		ListingsRepo: mongodb.NewListingRepository(client.DB),
		BookingsRepo: mongodb.NewBookingRepository(client.DB),
		UsersRepo:    users,
	}
	st.users = users
	st.sessions = memory.NewSessionStore()
	st.challenges = memory.NewChallengeStore()
	st.idempotency = idem
	st.outbox = queue
	st.journal = memory.NewBookingJournal()
	st.inbox = marks
	logger.Info("mongo storage enabled", "db", cfg.MongoDB)
	return st, nil
}

func codeSender(cfg config.Config, logger *slog.Logger) policies.CodeSender {
	emailjs := delivery.EmailJSConfig{
		ServiceID:  cfg.EmailJSServiceID,
		TemplateID: cfg.EmailJSTemplateID,
		PublicKey:  cfg.EmailJSPublicKey,
		PrivateKey: cfg.EmailJSPrivateKey,
	}
	if emailjs.Configured() {
		return delivery.NewEmailJSSender(emailjs, &http.Client{Timeout: 10 * time.Second})
	}
	logger.Warn("email delivery not configured; signup codes will be returned to the caller")
	return delivery.LogSender{Logger: logger}
}

// Close releases resources in reverse order of acquisition.
func (a *application) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}
