// Package main runs the swap ledger service: the HTTP API for config
// initialization, user registration, and trade logging, a websocket stream
// of trade events for indexers, and an optional ClickHouse event archive.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"swap-ledger/internal/domain"
	"swap-ledger/internal/events"
	"swap-ledger/internal/identity"
	"swap-ledger/internal/ledger"
	"swap-ledger/internal/observability"
	"swap-ledger/internal/storage"
	chstore "swap-ledger/internal/storage/clickhouse"
	"swap-ledger/internal/storage/memory"
	"swap-ledger/internal/storage/migrations"
	pgstore "swap-ledger/internal/storage/postgres"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "HTTP API listen address")
	metricsAddr := flag.String("metrics-addr", envOr("METRICS_ADDR", ":9090"), "Prometheus metrics HTTP address (empty to disable)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string for the event archive (empty to disable)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	eventBuffer := flag.Int("event-buffer", 1024, "Buffered trade events awaiting archive")
	archiveBatch := flag.Int("archive-batch", 200, "Events per archive batch")
	archiveInterval := flag.Duration("archive-interval", 2*time.Second, "Max delay before a partial archive batch is flushed")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (or pass --use-memory)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.DefaultMetrics

	// Build stores
	var (
		configStore storage.ConfigStore
		stateStore  storage.UserStateStore
		tradeStore  storage.TradeRecordStore
	)
	if *useMemory {
		logger.Println("Using in-memory storage")
		configStore = memory.NewConfigStore()
		stateStore = memory.NewUserStateStore()
		tradeStore = memory.NewTradeRecordStore()
	} else {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("Connect to postgres: %v", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("Apply postgres migrations: %v", err)
		}
		logger.Println("Postgres migrations applied")

		configStore = pgstore.NewConfigStore(pool)
		stateStore = pgstore.NewUserStateStore(pool)
		tradeStore = pgstore.NewTradeRecordStore(pool)
	}

	// Build event surfaces: websocket broadcast always, archive if configured.
	broadcaster := events.NewBroadcaster(log.New(os.Stdout, "[events] ", log.LstdFlags), metrics)
	defer broadcaster.Close()
	emitters := events.MultiEmitter{broadcaster}

	var wg sync.WaitGroup
	if *clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("Apply clickhouse migrations: %v", err)
		}
		defer conn.Close()
		logger.Println("Clickhouse migrations applied")

		channel := events.NewChannelEmitter(*eventBuffer, metrics)
		emitters = append(emitters, channel)

		archiver := events.NewArchiver(
			channel,
			chstore.NewTradeEventStore(conn),
			events.ArchiverConfig{BatchSize: *archiveBatch, FlushInterval: *archiveInterval},
			log.New(os.Stdout, "[archiver] ", log.LstdFlags),
			metrics,
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			archiver.Run(ctx)
		}()
	}

	service := ledger.NewService(configStore, stateStore, tradeStore, emitters,
		ledger.WithMetrics(metrics))

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	api := &apiServer{service: service, logger: logger}
	server := &http.Server{Addr: *listenAddr, Handler: api.routes(broadcaster.Handler())}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("HTTP shutdown: %v", err)
		}

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-shutdownCtx.Done():
		}
	}()

	logger.Printf("Starting ledger API on %s", *listenAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("HTTP server error: %v", err)
	}

	cancel()
	wg.Wait()
	logger.Println("Shutdown complete")
}

// apiServer holds HTTP handler dependencies.
type apiServer struct {
	service *ledger.Service
	logger  *log.Logger
}

// routes builds the API mux. stream serves the websocket event feed and may
// be nil.
func (s *apiServer) routes(stream http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/config", s.handleInitializeConfig)
	mux.HandleFunc("GET /v1/config", s.handleGetConfig)
	mux.HandleFunc("POST /v1/users", s.handleInitializeUser)
	mux.HandleFunc("GET /v1/users/{user}", s.handleGetUserState)
	mux.HandleFunc("POST /v1/trades", s.handleLogTrade)
	mux.HandleFunc("GET /v1/trades/{user}", s.handleListTrades)
	mux.HandleFunc("GET /v1/trades/{user}/{sequence}", s.handleGetTrade)
	if stream != nil {
		mux.Handle("GET /ws", stream)
	}
	return mux
}

// errOffCurveIdentity rejects identities that are not real ed25519 public
// keys, e.g. a derived storage address pasted where a wallet key belongs.
var errOffCurveIdentity = errors.New("identity is not a valid ed25519 public key")

// initializeConfigRequest is the POST /v1/config body.
type initializeConfigRequest struct {
	Admin           domain.Identity   `json:"admin"`
	Whitelist       []domain.Identity `json:"whitelist"`
	ProtocolVersion uint16            `json:"protocol_version"`
}

// initializeUserRequest is the POST /v1/users body.
type initializeUserRequest struct {
	User domain.Identity `json:"user"`
}

// logTradeRequest is the POST /v1/trades body.
type logTradeRequest struct {
	User        domain.Identity `json:"user"`
	Signer      domain.Identity `json:"signer"`
	TradeType   uint8           `json:"trade_type"`
	TokenIn     domain.Identity `json:"token_in"`
	TokenOut    domain.Identity `json:"token_out"`
	Amount      uint64          `json:"amount"`
	Price       uint64          `json:"price"`
	SlippageBps uint16          `json:"slippage_bps"`
	Tag         domain.Tag      `json:"tag"`
}

// addressResponse carries a derived address back to the caller.
type addressResponse struct {
	Address domain.Address `json:"address"`
}

// configResponse is the GET /v1/config body.
type configResponse struct {
	Admin           domain.Identity   `json:"admin"`
	Whitelist       []domain.Identity `json:"whitelist"`
	ProtocolVersion uint16            `json:"protocol_version"`
	CreatedAt       int64             `json:"created_at"`
}

// userStateResponse is the GET /v1/users/{user} body.
type userStateResponse struct {
	Owner      domain.Identity `json:"owner"`
	TradeCount uint64          `json:"trade_count"`
}

// tradeRecordResponse is the JSON form of a trade record.
type tradeRecordResponse struct {
	Address     domain.Address  `json:"address"`
	TradeID     domain.TradeID  `json:"trade_id"`
	User        domain.Identity `json:"user"`
	Sequence    uint64          `json:"sequence"`
	TradeType   uint8           `json:"trade_type"`
	TokenIn     domain.Identity `json:"token_in"`
	TokenOut    domain.Identity `json:"token_out"`
	Amount      uint64          `json:"amount"`
	Price       uint64          `json:"price"`
	SlippageBps uint16          `json:"slippage_bps"`
	Tag         domain.Tag      `json:"tag"`
	Timestamp   int64           `json:"timestamp"`
}

func toTradeRecordResponse(t *domain.TradeRecord) tradeRecordResponse {
	return tradeRecordResponse{
		Address:     t.Address,
		TradeID:     t.TradeID,
		User:        t.User,
		Sequence:    t.Sequence,
		TradeType:   t.TradeType,
		TokenIn:     t.TokenIn,
		TokenOut:    t.TokenOut,
		Amount:      t.Amount,
		Price:       t.Price,
		SlippageBps: t.SlippageBps,
		Tag:         t.Tag,
		Timestamp:   t.Timestamp,
	}
}

func (s *apiServer) handleInitializeConfig(w http.ResponseWriter, r *http.Request) {
	var req initializeConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	addr, err := s.service.InitializeConfig(r.Context(), req.Admin, req.Whitelist, req.ProtocolVersion)
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, addressResponse{Address: addr})
}

func (s *apiServer) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.service.Config(r.Context())
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, configResponse{
		Admin:           cfg.Admin,
		Whitelist:       cfg.Whitelist,
		ProtocolVersion: cfg.ProtocolVersion,
		CreatedAt:       cfg.CreatedAt,
	})
}

func (s *apiServer) handleInitializeUser(w http.ResponseWriter, r *http.Request) {
	var req initializeUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if !identity.OnCurve(req.User) {
		writeError(w, http.StatusUnprocessableEntity, errOffCurveIdentity)
		return
	}

	addr, err := s.service.InitializeUser(r.Context(), req.User)
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, addressResponse{Address: addr})
}

func (s *apiServer) handleGetUserState(w http.ResponseWriter, r *http.Request) {
	user, err := domain.ParseIdentity(r.PathValue("user"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	state, err := s.service.UserState(r.Context(), user)
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userStateResponse{
		Owner:      state.Owner,
		TradeCount: state.TradeCount,
	})
}

func (s *apiServer) handleLogTrade(w http.ResponseWriter, r *http.Request) {
	var req logTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	// Token mints may legitimately be derived (off-curve) addresses; only the
	// acting identities must be signing-capable keys.
	if !identity.OnCurve(req.User) || !identity.OnCurve(req.Signer) {
		writeError(w, http.StatusUnprocessableEntity, errOffCurveIdentity)
		return
	}

	record, err := s.service.LogTrade(r.Context(), req.User, req.Signer, domain.TradeInput{
		TradeType:   req.TradeType,
		TokenIn:     req.TokenIn,
		TokenOut:    req.TokenOut,
		Amount:      req.Amount,
		Price:       req.Price,
		SlippageBps: req.SlippageBps,
		Tag:         req.Tag,
	})
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTradeRecordResponse(record))
}

func (s *apiServer) handleListTrades(w http.ResponseWriter, r *http.Request) {
	user, err := domain.ParseIdentity(r.PathValue("user"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	records, err := s.service.Trades(r.Context(), user)
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}

	out := make([]tradeRecordResponse, 0, len(records))
	for _, t := range records {
		out = append(out, toTradeRecordResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *apiServer) handleGetTrade(w http.ResponseWriter, r *http.Request) {
	user, err := domain.ParseIdentity(r.PathValue("user"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sequence, err := strconv.ParseUint(r.PathValue("sequence"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse sequence: %w", err))
		return
	}

	record, err := s.service.Trade(r.Context(), user, sequence)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTradeRecordResponse(record))
}

// writeLedgerError maps ledger errors to HTTP statuses.
func (s *apiServer) writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrAlreadyInitialized):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, ledger.ErrRecordAlreadyExists),
		errors.Is(err, ledger.ErrConcurrentConflict):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, ledger.ErrConfigNotInitialized),
		errors.Is(err, ledger.ErrUserNotInitialized):
		writeError(w, http.StatusPreconditionFailed, err)
	case errors.Is(err, ledger.ErrUnauthorized):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrTokenNotWhitelisted),
		errors.Is(err, ledger.ErrWhitelistTooLarge),
		errors.Is(err, domain.ErrInvalidTagLength):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	default:
		s.logger.Printf("Internal error: %v", err)
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// envOr returns the env var value or a default.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
