package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jcamiloaa/deep90-app/external/apisports"
	extjobqueue "github.com/jcamiloaa/deep90-app/external/jobqueue"
	"github.com/jcamiloaa/deep90-app/external/openai"
	"github.com/jcamiloaa/deep90-app/external/whatsapp"
	"github.com/jcamiloaa/deep90-app/internal/config"
	"github.com/jcamiloaa/deep90-app/internal/domain/conversation"
	"github.com/jcamiloaa/deep90-app/internal/domain/jobscheduler"
	"github.com/jcamiloaa/deep90-app/internal/domain/livefixture"
	"github.com/jcamiloaa/deep90-app/internal/domain/liveodds"
	"github.com/jcamiloaa/deep90-app/internal/domain/source"
	"github.com/jcamiloaa/deep90-app/internal/domain/subscriber"
	"github.com/jcamiloaa/deep90-app/internal/infrastructure/counter"
	"github.com/jcamiloaa/deep90-app/internal/infrastructure/jobqueue"
	"github.com/jcamiloaa/deep90-app/internal/infrastructure/repository/cache"
	"github.com/jcamiloaa/deep90-app/internal/infrastructure/repository/memory"
	"github.com/jcamiloaa/deep90-app/internal/infrastructure/repository/postgres"
	"github.com/jcamiloaa/deep90-app/internal/interfaces/httpapi"
	"github.com/jcamiloaa/deep90-app/internal/platform/logging"
	"github.com/jcamiloaa/deep90-app/internal/usecase"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"
)

const (
	dbMaxOpenConns    = 20
	dbMaxIdleConns    = 5
	dbConnMaxLifetime = 30 * time.Minute
	dbPingTimeout     = 5 * time.Second
)

type repositories struct {
	sources       source.Repository
	fixtures      livefixture.Repository
	odds          liveodds.Repository
	conversations conversation.Repository
	subscribers   subscriber.Repository
	dispatches    jobscheduler.Repository
}

type closer struct {
	name string
	fn   func(ctx context.Context) error
}

// App holds the services shared by the api and worker processes.
type App struct {
	cfg    config.Config
	logger *logging.Logger

	Reconciler *usecase.ReconciliationService
	LiveData   *usecase.LiveDataService
	Chat       *usecase.ChatDispatcher

	closers []closer
}

// New wires storage, the job queue, the feed client and, when WhatsApp is
// enabled, the chat stack. process names the binary in DB sessions and logs.
func New(ctx context.Context, cfg config.Config, process string, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	a := &App{cfg: cfg, logger: logger}

	repos, err := a.buildRepositories(ctx, process)
	if err != nil {
		a.closeQuietly()
		return nil, err
	}

	queue, local, err := a.buildJobQueue()
	if err != nil {
		a.closeQuietly()
		return nil, err
	}

	feed := apisports.NewClient(apisports.ClientConfig{
		BaseURL:        cfg.APISportsBaseURL,
		APIKey:         cfg.APISportsKey,
		Host:           cfg.APISportsHost,
		Timeout:        cfg.APISportsTimeout,
		MaxRetries:     cfg.APISportsMaxRetries,
		Logger:         logger,
		CircuitBreaker: cfg.APISportsCircuit,
	})

	a.Reconciler = usecase.NewReconciliationService(
		repos.sources,
		repos.fixtures,
		repos.odds,
		feed,
		queue,
		repos.dispatches,
		usecase.ReconciliationConfig{
			FeedTimeout:          cfg.ReconcileFeedTimeout,
			ResetErrorsOnSuccess: cfg.ReconcileResetErrorsOnSuccess,
			RunningLease:         cfg.ReconcileRunningLease,
			FixturesInterval:     cfg.ReconcileFixturesInterval,
			OddsInterval:         cfg.ReconcileOddsInterval,
		},
		logger,
	)
	if local != nil {
		local.Handle(usecase.JobPathReconcile, reconcileJobHandler(a.Reconciler, logger))
	}

	a.LiveData = usecase.NewLiveDataService(repos.fixtures, repos.odds, logger)

	if cfg.WhatsAppEnabled {
		if a.Chat, err = a.buildChat(ctx, repos); err != nil {
			a.closeQuietly()
			return nil, err
		}
	}

	return a, nil
}

// NewHTTPServer builds the api server around the wired services.
func (a *App) NewHTTPServer() (*http.Server, error) {
	if strings.TrimSpace(a.cfg.HTTPAddr) == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	handler := httpapi.NewHandler(
		a.Reconciler,
		a.LiveData,
		a.Chat,
		httpapi.WebhookConfig{
			VerifyToken: a.cfg.WhatsAppVerifyToken,
			AppSecret:   a.cfg.WhatsAppAppSecret,
		},
		a.logger,
	)

	captureBody := 0
	if a.cfg.UptraceEnabled && a.cfg.UptraceCaptureRequestBody {
		captureBody = a.cfg.UptraceRequestBodyMaxBytes
	}
	router := httpapi.NewRouter(
		handler,
		a.logger,
		a.cfg.SwaggerEnabled,
		a.cfg.CORSAllowedOrigins,
		a.cfg.InternalJobToken,
		captureBody,
	)

	return &http.Server{
		Addr:         a.cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
	}, nil
}

// Close releases resources in reverse wiring order.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) closeQuietly() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Close(ctx); err != nil {
		a.logger.Warn("close partially built app", "error", err)
	}
}

func (a *App) onClose(name string, fn func(ctx context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

func (a *App) buildRepositories(ctx context.Context, process string) (repositories, error) {
	var repos repositories

	switch a.cfg.StorageDriver {
	case config.StoragePostgres:
		db, err := openPostgres(ctx, a.cfg, process)
		if err != nil {
			return repositories{}, err
		}
		a.onClose("postgres", func(context.Context) error { return db.Close() })

		repos = repositories{
			sources:       postgres.NewSourceRepository(db),
			fixtures:      postgres.NewLiveFixtureRepository(db),
			odds:          postgres.NewLiveOddsRepository(db),
			conversations: postgres.NewConversationRepository(db),
			subscribers:   postgres.NewSubscriberRepository(db),
			dispatches:    postgres.NewJobDispatchRepository(db),
		}
	default:
		a.logger.Warn("using in-memory storage, data is lost on restart", "storage_driver", a.cfg.StorageDriver)
		repos = repositories{
			sources:       memory.NewSourceRepository(),
			fixtures:      memory.NewLiveFixtureRepository(),
			odds:          memory.NewLiveOddsRepository(),
			conversations: memory.NewConversationRepository(),
			subscribers:   memory.NewSubscriberRepository(),
			dispatches:    memory.NewJobDispatchRepository(),
		}
	}

	if a.cfg.CacheEnabled {
		repos.fixtures = cache.NewLiveFixtureRepository(repos.fixtures, a.cfg.CacheTTL)
		repos.odds = cache.NewLiveOddsRepository(repos.odds, a.cfg.CacheTTL)
	}
	return repos, nil
}

func openPostgres(ctx context.Context, cfg config.Config, process string) (*sqlx.DB, error) {
	if strings.TrimSpace(cfg.DBURL) == "" {
		return nil, fmt.Errorf("DB_URL is required for storage driver %q", config.StoragePostgres)
	}

	dbName := dbNameFromURL(cfg.DBURL)
	db, err := otelsqlx.Open("postgres", NormalizeDBURL(cfg.DBURL, applicationName(cfg, process)),
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithDBName(dbName),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(dbMaxOpenConns)
	db.SetMaxIdleConns(dbMaxIdleConns)
	db.SetConnMaxLifetime(dbConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	otelsql.ReportDBStatsMetrics(db.DB, otelsql.WithDBName(dbName))
	return db, nil
}

func applicationName(cfg config.Config, process string) string {
	name := strings.TrimSpace(cfg.ServiceName)
	process = strings.TrimSpace(process)
	if process == "" || strings.HasSuffix(name, "-"+process) {
		return name
	}
	return name + "-" + process
}

// buildJobQueue returns the local queue as well when jobs run in process, so
// the caller can register handlers on it.
func (a *App) buildJobQueue() (usecase.JobQueue, *jobqueue.LocalQueue, error) {
	if a.cfg.QStashEnabled {
		publisher, err := extjobqueue.NewQStashPublisher(extjobqueue.QStashPublisherConfig{
			BaseURL:          a.cfg.QStashBaseURL,
			Token:            a.cfg.QStashToken,
			TargetBaseURL:    a.cfg.QStashTargetBaseURL,
			Retries:          a.cfg.QStashRetries,
			InternalJobToken: a.cfg.InternalJobToken,
			CircuitBreaker:   a.cfg.QStashCircuit,
		}, a.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("build qstash publisher: %w", err)
		}
		return publisher, nil, nil
	}

	local, err := jobqueue.NewLocalQueue(jobqueue.LocalQueueConfig{
		Workers:     a.cfg.LocalQueueWorkers,
		DedupWindow: a.cfg.LocalQueueDedupWindow,
		JobTimeout:  a.cfg.ReconcileRunningLease,
	}, a.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("build local job queue: %w", err)
	}
	a.onClose("local job queue", local.Close)
	return local, local, nil
}

// reconcileJobHandler runs queued reconcile jobs. A failure already recorded on
// the source is not retried by the queue.
func reconcileJobHandler(reconciler *usecase.ReconciliationService, logger *logging.Logger) jobqueue.Handler {
	return func(ctx context.Context, body []byte) error {
		var payload usecase.ReconcileJobPayload
		if err := jsoniter.Unmarshal(body, &payload); err != nil {
			return fmt.Errorf("decode reconcile job: %w", err)
		}

		outcome, err := reconciler.RunReconcileJob(ctx, payload)
		if err != nil {
			if usecase.IsRecordedFailure(err) {
				logger.WarnContext(ctx, "reconcile job failed",
					"source_id", payload.SourceID,
					"dispatch_id", payload.DispatchID,
					"error", err,
				)
				return nil
			}
			return err
		}
		logger.DebugContext(ctx, "reconcile job done",
			"source_id", payload.SourceID,
			"skipped", outcome.Skipped,
			"items", outcome.ItemsCount,
		)
		return nil
	}
}

func (a *App) buildChat(ctx context.Context, repos repositories) (*usecase.ChatDispatcher, error) {
	cfg := a.cfg

	assistant := openai.NewClient(openai.ClientConfig{
		BaseURL:        cfg.OpenAIBaseURL,
		APIKey:         cfg.OpenAIAPIKey,
		Timeout:        cfg.OpenAITimeout,
		Logger:         a.logger,
		CircuitBreaker: cfg.OpenAICircuit,
	})

	sender, err := whatsapp.NewSender(whatsapp.SenderConfig{
		BaseURL:        cfg.WhatsAppAPIBaseURL,
		AccessToken:    cfg.WhatsAppAccessToken,
		PhoneNumberID:  cfg.WhatsAppPhoneNumberID,
		Logger:         a.logger,
		CircuitBreaker: cfg.WhatsAppCircuit,
	})
	if err != nil {
		return nil, fmt.Errorf("build whatsapp sender: %w", err)
	}

	dailyCounter, err := a.buildCounter(ctx)
	if err != nil {
		return nil, err
	}

	assistantIDs := make(map[conversation.Persona]string, len(cfg.AssistantIDs))
	for key, assistantID := range cfg.AssistantIDs {
		persona, ok := conversation.ParsePersona(key)
		if !ok {
			return nil, fmt.Errorf("unknown assistant persona %q", key)
		}
		assistantIDs[persona] = assistantID
	}
	preserveTiers, err := parseTiers(cfg.ConversationPreserveTiers)
	if err != nil {
		return nil, fmt.Errorf("conversation preserve tiers: %w", err)
	}
	limitedTiers, err := parseTiers(cfg.DailyLimitTiers)
	if err != nil {
		return nil, fmt.Errorf("daily limit tiers: %w", err)
	}

	toolbox := usecase.NewAssistantToolbox(repos.fixtures, repos.odds, cfg.AssistantToolCacheTTL, a.logger)
	router := usecase.NewConversationRouter(
		repos.conversations,
		assistant,
		toolbox,
		nil,
		usecase.ConversationRouterConfig{
			AssistantIDs:      assistantIDs,
			PreserveTiers:     preserveTiers,
			MaxToolIterations: cfg.AssistantMaxToolIterations,
			PollInterval:      cfg.AssistantPollInterval,
			PollTimeout:       cfg.AssistantPollTimeout,
		},
		a.logger,
	)
	chat := usecase.NewChatService(
		repos.subscribers,
		router,
		sender,
		dailyCounter,
		usecase.ChatConfig{
			DailyLimit:   cfg.DailyMessageLimit,
			LimitedTiers: limitedTiers,
		},
		a.logger,
	)

	dispatcher, err := usecase.NewChatDispatcher(chat, cfg.ChatWorkerPoolSize, cfg.ChatJobTimeout, a.logger)
	if err != nil {
		return nil, fmt.Errorf("build chat dispatcher: %w", err)
	}
	a.onClose("chat dispatcher", dispatcher.Close)
	return dispatcher, nil
}

// buildCounter prefers redis so replicas share daily limits. An unreachable
// redis at startup is logged; the chat service fails open on counter errors.
func (a *App) buildCounter(ctx context.Context) (usecase.DailyMessageCounter, error) {
	if strings.TrimSpace(a.cfg.RedisAddr) == "" {
		return counter.NewMemoryCounter(), nil
	}

	redisCounter, err := counter.NewRedisCounter(counter.RedisConfig{
		Addr:      a.cfg.RedisAddr,
		Password:  a.cfg.RedisPassword,
		DB:        a.cfg.RedisDB,
		KeyPrefix: "deep90:",
	})
	if err != nil {
		return nil, fmt.Errorf("build redis counter: %w", err)
	}
	a.onClose("redis", func(context.Context) error { return redisCounter.Close() })

	pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()
	if err := redisCounter.Ping(pingCtx); err != nil {
		a.logger.WarnContext(ctx, "redis unreachable at startup", "addr", a.cfg.RedisAddr, "error", err)
	}
	return redisCounter, nil
}

// parseTiers keeps nil for an empty list so services apply their defaults.
func parseTiers(values []string) ([]subscriber.Tier, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make([]subscriber.Tier, 0, len(values))
	for _, value := range values {
		tier, ok := subscriber.ParseTier(value)
		if !ok {
			return nil, fmt.Errorf("unknown tier %q", value)
		}
		out = append(out, tier)
	}
	return out, nil
}
