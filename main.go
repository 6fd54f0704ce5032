package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	analyticshttp "energy-dashboard/internal/analytics/interfaces/http"
	"energy-dashboard/internal/auth"
	"energy-dashboard/internal/chat"
	chathttp "energy-dashboard/internal/chat/interfaces/http"
	"energy-dashboard/internal/config"
	"energy-dashboard/internal/eventing"
	"energy-dashboard/internal/notify"
	notifyhttp "energy-dashboard/internal/notify/interfaces/http"
	"energy-dashboard/internal/observability/metrics"
	"energy-dashboard/internal/stream/classify"
	streamhttp "energy-dashboard/internal/stream/interfaces/http"
	"energy-dashboard/internal/stream/session"
	"energy-dashboard/internal/stream/transport/ws"
	telemetryapp "energy-dashboard/internal/telemetry/application"
	telemetrypostgres "energy-dashboard/internal/telemetry/infrastructure/postgres"
	"energy-dashboard/internal/telemetry/infrastructure/rediscache"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := log.New(os.Stdout, "", log.LstdFlags)

	metrics.Init()

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	historyOpts := []telemetryapp.Option{}
	if cfg.RedisAddr != "" {
		cache, err := rediscache.New(cfg.RedisAddr, cfg.RedisPassword, 0, cfg.HistoryCacheTTL)
		if err != nil {
			logger.Printf("redis unavailable, history served uncached: %v", err)
		} else {
			defer cache.Close()
			historyOpts = append(historyOpts, telemetryapp.WithCache(cache))
		}
	}
	historyService, err := telemetryapp.NewHistoryService(telemetrypostgres.NewHistoryQuery(db), historyOpts...)
	if err != nil {
		logger.Fatalf("history service error: %v", err)
	}
	historyHandler, err := analyticshttp.NewHistoryHandler(historyService, logger)
	if err != nil {
		logger.Fatalf("history handler error: %v", err)
	}

	bus := eventing.NewInMemoryBus()
	queue := notify.NewQueue(cfg.NotificationLifetime)
	defer queue.Close()
	broker := streamhttp.NewSSEBroker()
	conversation := chat.NewLog()

	bus.Subscribe(eventing.EventTypeOf[eventing.AlertRaised](), func(ctx context.Context, event any) error {
		evt, ok := event.(eventing.AlertRaised)
		if !ok {
			return eventing.ErrInvalidEventType
		}
		queue.Push(evt.Message)
		broker.Notify(ctx, evt)
		return nil
	})
	bus.Subscribe(eventing.EventTypeOf[eventing.ChatMessageReceived](), func(_ context.Context, event any) error {
		evt, ok := event.(eventing.ChatMessageReceived)
		if !ok {
			return eventing.ErrInvalidEventType
		}
		conversation.Append(chat.SenderRemote, evt.Message)
		return nil
	})
	bus.Subscribe(eventing.EventTypeOf[eventing.SessionStateChanged](), func(_ context.Context, event any) error {
		evt, ok := event.(eventing.SessionStateChanged)
		if !ok {
			return eventing.ErrInvalidEventType
		}
		if evt.State == string(session.StateClosed) {
			conversation.Clear()
		}
		return nil
	})

	transport, err := ws.NewTransport(cfg.StreamBaseURL)
	if err != nil {
		logger.Fatalf("stream transport error: %v", err)
	}
	manager, err := session.NewManager(transport)
	if err != nil {
		logger.Fatalf("session manager error: %v", err)
	}
	defer manager.Release()
	manager.On(classify.ChannelAlert, func(identity string, frame classify.EventFrame) {
		if err := bus.Publish(context.Background(), eventing.AlertRaised{
			Identity:   identity,
			Message:    frame.Message,
			OccurredAt: time.Now().UTC(),
		}); err != nil {
			logger.Printf("alert publish error: %v", err)
		}
	})
	manager.On(classify.ChannelChat, func(identity string, frame classify.EventFrame) {
		if err := bus.Publish(context.Background(), eventing.ChatMessageReceived{
			Identity:   identity,
			Message:    frame.Message,
			OccurredAt: time.Now().UTC(),
		}); err != nil {
			logger.Printf("chat publish error: %v", err)
		}
	})

	attachHandler, err := streamhttp.NewAttachHandler(manager, bus, logger)
	if err != nil {
		logger.Fatalf("attach handler error: %v", err)
	}
	notificationHandler, err := notifyhttp.NewNotificationHandler(queue)
	if err != nil {
		logger.Fatalf("notification handler error: %v", err)
	}
	chatClient, err := chat.NewClient(cfg.ChatEndpoint)
	if err != nil {
		logger.Fatalf("chat client error: %v", err)
	}
	chatHandler, err := chathttp.NewChatHandler(conversation, chatClient, logger)
	if err != nil {
		logger.Fatalf("chat handler error: %v", err)
	}

	if cfg.JWTSecret == "" {
		logger.Fatal("AUTH_JWT_SECRET is required")
	}
	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/devices/", historyHandler)
	mux.Handle("/api/v1/notifications", notificationHandler)
	mux.Handle("/api/v1/notifications/", notificationHandler)
	mux.Handle("/api/v1/alerts/stream", streamhttp.NewStreamHandler(broker))
	mux.Handle("/api/v1/stream/attach", attachHandler)
	mux.Handle("/api/v1/stream/detach", attachHandler)
	mux.Handle("/api/v1/stream/state", attachHandler)
	mux.Handle("/api/v1/chat/messages", chatHandler)
	mux.Handle("/api/v1/chat/send", chatHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Flush keeps the SSE stream working behind the logging wrapper.
func (w *statusWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
