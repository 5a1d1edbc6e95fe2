package cli

import (
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/ivrflow/internal/config"
	"github.com/aretw0/ivrflow/internal/logging"
	"github.com/aretw0/ivrflow/pkg/adapters/file"
	"github.com/aretw0/ivrflow/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/ivrflow/pkg/adapters/redis"
	"github.com/aretw0/ivrflow/pkg/adapters/sqlite"
	"github.com/aretw0/ivrflow/pkg/codec"
	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/flows"
	"github.com/aretw0/ivrflow/pkg/persistence/middleware"
	"github.com/aretw0/ivrflow/pkg/ports"
)

// Backend is an opened FlowStore plus the locker that matches it.
type Backend struct {
	Store  ports.FlowStore
	Locker ports.DistributedLocker
	close  func() error
}

// Close releases connections held by the backend.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// OpenBackend opens the store selected by cfg and wraps it with the configured
// redaction and encryption middleware.
func OpenBackend(cfg config.Store) (*Backend, error) {
	b, err := openDriver(cfg)
	if err != nil {
		return nil, err
	}

	var mws []middleware.Middleware
	if len(cfg.Redact) > 0 {
		mw, err := middleware.NewRedactMiddleware(cfg.Redact)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
		}
		mws = append(mws, mw)
	}
	if cfg.EncryptionKey != "" {
		enc := middleware.EncryptionConfig{}
		if enc.ActiveKey, err = base64.StdEncoding.DecodeString(cfg.EncryptionKey); err != nil {
			b.Close()
			return nil, fmt.Errorf("%w: encryption key: %v", config.ErrInvalidConfig, err)
		}
		for _, k := range cfg.FallbackKeys {
			key, err := base64.StdEncoding.DecodeString(k)
			if err != nil {
				b.Close()
				return nil, fmt.Errorf("%w: fallback key: %v", config.ErrInvalidConfig, err)
			}
			enc.FallbackKeys = append(enc.FallbackKeys, key)
		}
		mw, err := middleware.NewEncryptionMiddleware(enc)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
		}
		mws = append(mws, mw)
	}
	b.Store = middleware.Chain(b.Store, mws...)
	return b, nil
}

// openDriver opens the raw store. Redis also provides a distributed locker;
// the other drivers are single-process and use the in-memory locker.
func openDriver(cfg config.Store) (*Backend, error) {
	switch cfg.Driver {
	case "", config.DriverMemory:
		return &Backend{Store: memory.NewStore(), Locker: memory.NewLocker()}, nil
	case config.DriverFile:
		return &Backend{Store: file.New(cfg.Path), Locker: memory.NewLocker()}, nil
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: s, Locker: memory.NewLocker(), close: s.Close}, nil
	case config.DriverRedis:
		var opts []redisAdapter.Option
		if cfg.TTL > 0 {
			opts = append(opts, redisAdapter.WithTTL(cfg.TTL))
		}
		prefix := redisAdapter.DefaultPrefix
		if cfg.Prefix != "" {
			prefix = cfg.Prefix
			opts = append(opts, redisAdapter.WithPrefix(prefix))
		}
		s := redisAdapter.New(cfg.Redis, "", 0, opts...)
		return &Backend{
			Store:  s,
			Locker: redisAdapter.NewLocker(s.Client(), prefix),
			close:  s.Close,
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown store driver %q", config.ErrInvalidConfig, cfg.Driver)
}

// NewManager wires a flows.Manager over the backend.
func NewManager(b *Backend, cfg *config.Config, logger *slog.Logger, hooks domain.LifecycleHooks) *flows.Manager {
	opts := []flows.Option{
		flows.WithLocker(b.Locker),
		flows.WithLogger(logger),
		flows.WithHooks(hooks),
	}
	if cfg.Server.LockTTL > 0 {
		opts = append(opts, flows.WithLockTTL(cfg.Server.LockTTL))
	}
	return flows.NewManager(b.Store, opts...)
}

// CreateLogger configures the application logger. Without debug, only warnings and
// above are written, to Stderr so Stdout stays clean for artifacts.
func CreateLogger(cfg *config.Config, debug bool) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if debug {
		level = slog.LevelDebug
	}
	if cfg.Server.JSONLogs {
		return logging.NewJSON(os.Stderr, level), nil
	}
	return logging.New(level), nil
}

// LoadGraph reads a flow document from path, or from stdin when path is "-".
// The format follows the extension, falling back to sniffing the content.
func LoadGraph(path string, stdin io.Reader) (*domain.Graph, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	format := codec.Sniff(data)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		format = codec.FormatForPath(path)
	}
	g, err := codec.Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}
