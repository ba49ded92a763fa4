package e2etest

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/myrjola/fitplanner/internal/logging"
)

// LogAddrKey is the key used to log the address the server is listening on.
const LogAddrKey = "addr"

// LogDsnKey is the key used to log the read-write SQLite DSN.
const LogDsnKey = "sqlDsn"

// RunFunc boots the application and blocks until ctx is cancelled.
type RunFunc func(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error

// Server is an in-process instance of the API together with a handle to its database.
type Server struct {
	url    string
	client *Client
	db     *sql.DB
	cancel context.CancelCauseFunc
	done   chan struct{}
}

// bootInfo collects the attributes the application logs while starting up.
type bootInfo struct {
	mu    sync.Mutex
	addr  string
	dsn   string
	ready chan struct{}
	once  sync.Once
}

func (b *bootInfo) observe(a slog.Attr) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch a.Key {
	case LogAddrKey:
		b.addr = a.Value.String()
	case LogDsnKey:
		b.dsn = a.Value.String()
	default:
		return
	}
	if b.addr != "" && b.dsn != "" {
		b.once.Do(func() { close(b.ready) })
	}
}

// StartServer runs the application with lookupEnv as its environment and returns once the health endpoint
// answers. The server is shut down when the test finishes.
//
// logSink receives the server logs, usually testhelpers.NewWriter. run must log the listening address under
// LogAddrKey and the database DSN under LogDsnKey.
func StartServer(t *testing.T, logSink io.Writer, lookupEnv func(string) (string, bool), run RunFunc) (*Server, error) {
	ctx, cancel := context.WithCancelCause(t.Context())
	boot := &bootInfo{ready: make(chan struct{})}
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(logSink, &slog.HandlerOptions{
		AddSource: false,
		Level:     slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			boot.observe(a)
			return a
		},
	})))

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := run(ctx, logger, lookupEnv); err != nil {
			cancel(err)
		}
	}()
	stop := func() {
		cancel(nil)
		<-done
	}

	select {
	case <-ctx.Done():
		stop()
		return nil, fmt.Errorf("server exited before it was ready: %w", context.Cause(ctx))
	case <-boot.ready:
	}

	url := "http://" + boot.addr
	client := NewClient(url)
	if err := client.WaitForReady(ctx, "/api/healthy"); err != nil {
		stop()
		return nil, fmt.Errorf("wait for ready: %w", err)
	}
	// The application registers its own driver name, the stock one reaches the same shared database.
	db, err := sql.Open("sqlite3", boot.dsn)
	if err != nil {
		stop()
		return nil, fmt.Errorf("open database: %w", err)
	}

	server := &Server{url: url, client: client, db: db, cancel: cancel, done: done}
	t.Cleanup(server.Shutdown)
	return server, nil
}

func (s *Server) Client() *Client {
	return s.client
}

func (s *Server) URL() string {
	return s.url
}

// DB gives tests direct access to the server's database, for assertions the API does not expose.
func (s *Server) DB() *sql.DB {
	return s.db
}

func (s *Server) Shutdown() {
	_ = s.db.Close()
	s.cancel(nil)
	<-s.done
}
