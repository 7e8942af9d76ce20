package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskpay/internal/domain/ledger"
	"taskpay/internal/domain/payment"
	"taskpay/internal/domain/snapshot"
	"taskpay/internal/domain/task"
	"taskpay/internal/platform/bus"
	"taskpay/internal/platform/config"
	"taskpay/internal/platform/db"
	"taskpay/internal/platform/jobs"
	"taskpay/internal/platform/metrics"
	"taskpay/internal/transport/http/api"
	ledgerhandler "taskpay/internal/transport/http/handlers/ledger"
	paymenthandler "taskpay/internal/transport/http/handlers/payment"
	snapshothandler "taskpay/internal/transport/http/handlers/snapshot"
	taskhandler "taskpay/internal/transport/http/handlers/task"
	"taskpay/internal/transport/http/middleware"
)

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler
	Jobs   *jobs.Service
}

// New assembles the application against a connected pool. Kept separate from
// Run so integration tests can mount the router on a test database.
func New(cfg config.Config, pool *pgxpool.Pool) *App {
	events := bus.New()
	collector := metrics.New()

	taskStore := task.NewStore(pool)
	paymentStore := payment.NewStore(pool)

	taskService := task.NewService(taskStore, events)
	paymentService := payment.NewService(paymentStore, taskStore, events)
	ledgerService := ledger.NewService(taskStore, paymentStore, events)
	snapshotService := snapshot.NewService(snapshot.NewStore(pool), events)
	jobsService := jobs.New(pool, cfg, ledgerService)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	if cfg.MetricsEnabled {
		router.Use(middleware.Metrics(collector))
	}

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		taskhandler.NewHandler(taskService).RegisterRoutes(r)
		paymenthandler.NewHandler(paymentService).RegisterRoutes(r)
		ledgerhandler.NewHandler(ledgerService).RegisterRoutes(r)
		snapshothandler.NewHandler(snapshotService).RegisterRoutes(r)

		if cfg.MetricsEnabled {
			r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
				api.Success(w, collector.Snapshot(), middleware.GetRequestID(req.Context()))
			})
		}

		r.Post("/jobs/reconcile", func(w http.ResponseWriter, req *http.Request) {
			details, err := jobsService.SweepNow(req.Context())
			if err != nil {
				api.Fail(w, http.StatusInternalServerError, "sweep_failed", "reconciliation sweep failed", middleware.GetRequestID(req.Context()))
				return
			}
			api.Success(w, details, middleware.GetRequestID(req.Context()))
		})
	})

	return &App{Config: cfg, DB: pool, Router: router, Jobs: jobsService}
}

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}

	app := New(cfg, pool)
	app.Jobs.Start(ctx)

	log.Printf("taskpay server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
