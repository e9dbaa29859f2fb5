package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/dealdesk/api-deals/internal/activity"
	"github.com/dealdesk/api-deals/internal/agent"
	"github.com/dealdesk/api-deals/internal/attachment"
	"github.com/dealdesk/api-deals/internal/auth"
	"github.com/dealdesk/api-deals/internal/brand"
	"github.com/dealdesk/api-deals/internal/config"
	"github.com/dealdesk/api-deals/internal/deal"
	"github.com/dealdesk/api-deals/internal/events"
	"github.com/dealdesk/api-deals/internal/export"
	"github.com/dealdesk/api-deals/internal/logger"
	"github.com/dealdesk/api-deals/internal/metrics"
	"github.com/dealdesk/api-deals/internal/note"
	"github.com/dealdesk/api-deals/internal/notify"
	"github.com/dealdesk/api-deals/internal/product"
	"github.com/dealdesk/api-deals/internal/schedule"
	"github.com/dealdesk/api-deals/internal/scheduler"
	"github.com/dealdesk/api-deals/internal/search"
	"github.com/dealdesk/api-deals/internal/split"
	"github.com/dealdesk/api-deals/internal/talent"
	"github.com/dealdesk/api-deals/internal/utils/db"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real environments set variables directly
	_ = godotenv.Load()

	cfg := config.MustLoad()
	zlog, err := logger.New(cfg.LogConfig)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zlog.Sync()

	auth.Configure(cfg.Auth)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gdb, err := db.ConnectDataBase(ctx, cfg.Database)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	if cfg.Database.AutoMigrate {
		err = db.Migrate(ctx, gdb,
			agent.Migrate,
			brand.Migrate,
			talent.Migrate,
			deal.Migrate,
			product.Migrate,
			schedule.Migrate,
			split.Migrate,
			note.Migrate,
			attachment.Migrate,
			activity.Migrate,
			auth.Migrate,
		)
		if err != nil {
			zlog.Fatal("auto migrate failed", zap.Error(err))
		}
	}

	m := metrics.New()

	/* ===== Activity events ===== */
	var sink activity.EventSink
	if len(cfg.Kafka.Brokers) > 0 {
		pub, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.PoolSize, zlog, m.PublishFailed)
		if err != nil {
			zlog.Fatal("failed to create kafka publisher", zap.Error(err))
		}
		defer pub.Close()
		sink = pub
		zlog.Info("activity events enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.ActivityTopic))
	}
	activityRepo := activity.NewRepository(gdb)
	recorder := activity.NewRecorder(activityRepo, sink, cfg.Kafka.ActivityTopic, zlog)

	/* ===== Split drafts ===== */
	var drafts split.DraftStore
	var memDrafts *split.MemoryStore
	if cfg.Redis.Addr != "" {
		rs := split.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Splits.DraftTTL)
		if err := rs.Ping(ctx); err != nil {
			zlog.Fatal("redis unreachable", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		defer rs.Close()
		drafts = rs
	} else {
		memDrafts = split.NewMemoryStore(cfg.Splits.DraftTTL)
		drafts = memDrafts
	}

	var alerter split.RemainderAlerter
	if cfg.Webhook.AlertURL != "" {
		wh, err := notify.NewWebhook(cfg.Webhook.AlertURL, cfg.Webhook.Timeout, cfg.Webhook.Workers, zlog)
		if err != nil {
			zlog.Fatal("failed to create webhook", zap.Error(err))
		}
		defer wh.Close()
		alerter = wh
	}

	splitRepo := split.NewRepository(gdb)
	splitSvc := split.NewService(split.Options{
		Repo:     splitRepo,
		Source:   split.NewGormSource(gdb),
		Drafts:   drafts,
		Policy:   split.ParsePolicy(cfg.Splits.OverAllocationPolicy),
		Activity: recorder,
		Alerter:  alerter,
		Metrics:  m,
		Logger:   zlog,
	})

	/* ===== Handlers ===== */
	dealRepo := deal.NewRepository(gdb)
	noteRepo := note.NewRepository(gdb)

	agentHandler := agent.NewHandler(gdb, zlog)
	handlers := []interface{ RegisterRoutes(*mux.Router) }{
		agentHandler,
		brand.NewHandler(brand.NewRepository(gdb), zlog),
		talent.NewHandler(talent.NewRepository(gdb), zlog),
		deal.NewHandler(dealRepo, recorder, zlog),
		product.NewHandler(product.NewRepository(gdb), recorder, zlog),
		schedule.NewHandler(schedule.NewRepository(gdb), recorder, zlog),
		split.NewHandler(splitSvc, zlog),
		note.NewHandler(noteRepo, recorder, zlog),
		attachment.NewHandler(attachment.NewRepository(gdb), recorder, m, cfg.Attachments.MaxBytes, zlog),
		activity.NewHandler(activityRepo, zlog),
		export.NewHandler(&export.GormSource{Deals: dealRepo, Splits: splitRepo, Notes: noteRepo}, recorder, m, zlog),
		search.NewHandler(search.NewRepository(gdb), zlog),
	}

	/* ===== Router ===== */
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context(), gdb); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/.well-known/jwks.json", auth.JWKSHandler).Methods(http.MethodGet)

	public := r.PathPrefix("/api").Subrouter()
	agentHandler.RegisterPublicRoutes(public)
	public.Handle("/auth/refresh", auth.RefreshHTTPHandler(gdb)).Methods(http.MethodPost)
	public.Handle("/auth/logout", auth.LogoutHTTPHandler(gdb)).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(auth.RequireAuth)
	for _, h := range handlers {
		h.RegisterRoutes(api)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", split.SessionHeader},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	})
	m.Instrument(r)
	handler := c.Handler(logger.Middleware(zlog)(r))

	/* ===== Housekeeping ===== */
	jobs, err := scheduler.NewManager(zlog)
	if err != nil {
		zlog.Fatal("failed to create scheduler", zap.Error(err))
	}
	jobs.Register(scheduler.RefreshTokenPurge(gdb))
	if memDrafts != nil {
		jobs.Register(scheduler.DraftPurge(memDrafts))
	}
	jobs.Start()
	defer jobs.Stop()

	/* ===== Server ===== */
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
	}

	go func() {
		zlog.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
}
