package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmitrijs2005/nutrikeeper/internal/client/api"
	"github.com/dmitrijs2005/nutrikeeper/internal/client/cache"
	"github.com/dmitrijs2005/nutrikeeper/internal/client/config"
	"github.com/dmitrijs2005/nutrikeeper/internal/client/metrics"
	"github.com/dmitrijs2005/nutrikeeper/internal/client/models"
	"github.com/dmitrijs2005/nutrikeeper/internal/client/services"
	"github.com/dmitrijs2005/nutrikeeper/internal/client/storage"
	"github.com/dmitrijs2005/nutrikeeper/internal/client/store"
	"github.com/dmitrijs2005/nutrikeeper/internal/filex"
	"github.com/dmitrijs2005/nutrikeeper/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const (
	dbFileName         = "nutrikeeper.db"
	deviceKeyFileName  = "device.key"
	pingTimeout        = 3 * time.Second
	metricsReadTimeout = 5 * time.Second
)

// backend is the part of the API client the commands use.
type backend interface {
	Ping(ctx context.Context) error
	Me(ctx context.Context) (*models.User, error)
	AnalyzeMeal(ctx context.Context, in *models.MealAnalysisRequest) (*models.MealAnalysis, error)
	LogMeal(ctx context.Context, in *models.Meal) (*models.Meal, error)
	GetMeals(ctx context.Context, date string) ([]models.Meal, error)
	GetDailySummary(ctx context.Context, date string) (*models.DailySummary, error)
	GetDailyGoals(ctx context.Context) (*models.DailyGoals, error)
	GetDailyGoalsProgress(ctx context.Context, date string) (*models.GoalProgress, error)
	SendChatMessage(ctx context.Context, in *models.ChatRequest) (*models.ChatReply, error)
	GenerateMealPlan(ctx context.Context, in *models.MealPlanRequest) (*models.MealPlan, error)
	GetCurrentMealPlan(ctx context.Context) (*models.MealPlan, error)
	GetCalendarMonth(ctx context.Context, year, month int) (*models.CalendarMonth, error)
}

type App struct {
	config   *config.Config
	log      logging.Logger
	backends *storage.Backends
	registry *prometheus.Registry

	api   backend
	auth  services.AuthService
	store *store.Store

	reader *bufio.Reader
	out    io.Writer

	mu           sync.Mutex
	mode         Mode
	route        string
	pendingEmail string
}

// NewApp opens local storage under cfg.DataDir and wires the API client,
// the auth store and the auth service.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	dir, err := filex.EnsureDir(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	secret := []byte(cfg.DeviceSecret)
	if len(secret) == 0 {
		secret, err = storage.LoadDeviceSecret(filepath.Join(dir, deviceKeyFileName))
		if err != nil {
			return nil, fmt.Errorf("device secret: %w", err)
		}
	}

	backends, err := storage.Open(ctx, filepath.Join(dir, dbFileName), secret)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	a := &App{
		config:   cfg,
		log:      log,
		backends: backends,
		registry: prometheus.NewRegistry(),
		store:    store.New(log),
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}

	tokens := storage.NewTokenStorage(backends, cfg.Platform)
	queries := cache.New(cfg.QueryCacheTTL)
	m := metrics.New(a.registry)

	client, err := api.New(cfg.BaseURL, tokens,
		api.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		api.WithLogger(log.With("component", "api")),
		api.WithMetrics(m),
		api.WithCache(queries),
		api.WithNetworkRetryDelay(cfg.NetworkRetryDelay),
		api.WithAnalysisPolicy(cfg.AnalysisTimeout, cfg.AnalysisAttempts, cfg.AnalysisBackoff),
		api.WithUnauthorizedHandler(services.UnauthorizedHandler(a.store, a)),
	)
	if err != nil {
		_ = backends.Close()
		return nil, err
	}

	cleanup := &services.Cleanup{
		Platform: cfg.Platform,
		Cache:    queries,
		Async:    backends.Async,
		Secure:   backends.Secure,
		Local:    backends.Local,
		Tokens:   tokens,
		Remote:   client,
		Log:      log.With("component", "signout"),
		Metrics:  m,
	}

	a.api = client
	a.auth = services.NewAuthService(client, tokens, a.store, cleanup, log)
	return a, nil
}

// Run restores the stored session, starts background workers and blocks in
// the REPL until the user exits or ctx is done.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.config.MetricsAddr != "" {
		go a.serveMetrics(ctx, a.config.MetricsAddr)
	}
	a.Root(ctx)
}

func (a *App) Close() {
	if a.backends != nil {
		if err := a.backends.Close(); err != nil {
			a.log.Warn(context.Background(), "closing database", "error", err)
		}
	}
}

// Replace implements services.Navigator. The CLI has a single screen, so
// it only remembers the route and tells the user what happened.
func (a *App) Replace(route string) {
	a.mu.Lock()
	a.route = route
	a.mu.Unlock()
	fmt.Fprintln(a.out, "Your session has ended. Please sign in again.")
}

func (a *App) isLoggedIn() bool {
	return a.store.State().IsAuthenticated
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.log.Info(context.Background(), "connectivity changed", "mode", mode)
	}
}

func (a *App) getMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// getStatus renders the prompt prefix: "(email online)".
func (a *App) getStatus() string {
	s := ""
	if st := a.store.State(); st.IsAuthenticated {
		if st.User != nil {
			s = st.User.Email + " "
		} else {
			s = "signed-in "
		}
	}
	s += string(a.getMode())
	if s != "" {
		s = "(" + s + ")"
	}
	return s
}

// StartOnlineStatusWatcher pings the backend every interval until ctx is
// done and flips the connectivity mode accordingly.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.checkOnline(ctx)
	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := a.api.Ping(ctx); err != nil {
		if ctx.Err() == nil || errors.Is(err, api.ErrUnavailable) {
			a.setMode(ModeOffline)
		}
		return
	}
	a.setMode(ModeOnline)
}

func (a *App) serveMetrics(ctx context.Context, addr string) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: metricsReadTimeout,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	a.log.Info(ctx, "serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.log.Error(ctx, "metrics server stopped", "error", err)
	}
}
