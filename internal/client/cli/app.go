package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/client/coordinator"
	"github.com/dmitrijs2005/gophauth/internal/client/services"
	"github.com/dmitrijs2005/gophauth/internal/client/storage"
	"github.com/dmitrijs2005/gophauth/internal/filex"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/redis/go-redis/v9"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config  *config.Config
	auth    *coordinator.Coordinator
	log     logging.Logger
	closers []io.Closer

	reader *bufio.Reader
	out    io.Writer

	mu       sync.Mutex
	mode     Mode
	userName string
}

// NewApp opens the session store, connects the backend and builds the
// coordinator. Nothing is restored until Run.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	kv, err := openKV(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	store, err := storage.NewSessionStore(ctx, kv)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	backend, err := client.NewGRPCBackend(c.ServerEndpointAddr, store.InstallationID())
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("connect backend: %w", err)
	}

	profiles := services.NewHTTPProfileSource(c.ProfileEndpoint, &http.Client{Timeout: c.RequestTimeout})
	svc := services.NewAuthService(backend, profiles, log)

	a := newApp(c, coordinator.New(svc, store, log), log, bufio.NewReader(os.Stdin), os.Stdout)
	a.closers = []io.Closer{backend, store}
	return a, nil
}

func newApp(c *config.Config, auth *coordinator.Coordinator, log logging.Logger, r *bufio.Reader, w io.Writer) *App {
	return &App{config: c, auth: auth, log: log, reader: r, out: w}
}

func openKV(ctx context.Context, c *config.Config) (storage.KV, error) {
	switch c.StorageDriver {
	case config.DriverRedis:
		rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis %s: %w", c.RedisAddr, err)
		}
		return storage.NewRedisKV(rdb, c.RedisPrefix), nil
	default:
		path, err := filex.EnsureParentDir(c.DatabasePath)
		if err != nil {
			return nil, err
		}
		return storage.OpenSQLite(ctx, path)
	}
}

// Run restores the persisted session, starts the status watcher and blocks
// in the REPL.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	updates, unsubscribe := a.auth.Subscribe()
	defer unsubscribe()
	go a.follow(updates)

	fmt.Fprintln(a.out, "Welcome to gophauth CLI (type 'help' for commands)")

	bootCtx, cancel := a.callContext(ctx)
	a.auth.Boot(bootCtx)
	cancel()
	a.syncUser()
	a.probe(ctx)

	watchCtx, stop := context.WithCancel(ctx)
	defer stop()
	go a.StartOnlineStatusWatcher(watchCtx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

// Close releases the backend connection and the session store.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// follow keeps the prompt's user name in step with published state.
func (a *App) follow(updates <-chan coordinator.Snapshot) {
	for s := range updates {
		a.mu.Lock()
		a.userName = s.Username
		a.mu.Unlock()
	}
}

func (a *App) syncUser() {
	s := a.auth.State()
	a.mu.Lock()
	a.userName = s.Username
	a.mu.Unlock()
}

func (a *App) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

func (a *App) isLoggedIn() bool {
	return a.auth.State().IsAuthenticated
}

func (a *App) currentMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.log.Info(ctx, "switched mode", "mode", mode)
	}
}

func (a *App) probe(ctx context.Context) bool {
	ctx, cancel := a.callContext(ctx)
	defer cancel()

	online := a.auth.CheckServerStatus(ctx)
	if online {
		a.setMode(ctx, ModeOnline)
	} else {
		a.setMode(ctx, ModeOffline)
	}
	return online
}

// StartOnlineStatusWatcher probes the backend every interval until ctx ends.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) getStatus() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := ""
	if a.userName != "" {
		s = a.userName + " "
	}
	s += string(a.mode)
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}
