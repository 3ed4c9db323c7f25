package core

import (
	"io"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/insightpilot/insightpilot/app/core/srv"
	"github.com/insightpilot/insightpilot/app/store/sqlstore"
	"github.com/insightpilot/insightpilot/pkg/budget"
	"github.com/insightpilot/insightpilot/pkg/eventbus"
	"github.com/insightpilot/insightpilot/pkg/intent"
	"github.com/insightpilot/insightpilot/pkg/tokenizer"
	"github.com/insightpilot/insightpilot/pkg/types"
)

const DEFAULT_CONTEXT_CACHE_TTL = 300

type Core struct {
	cfg CoreConfig
	srv *srv.Srv

	stores func() *sqlstore.Provider
	rdb    *redis.Client
	cache  types.Cache

	tokenizer  *tokenizer.Counter
	classifier *intent.Classifier
	budget     *budget.Manager
	bus        *eventbus.Bus

	httpEngine *gin.Engine
	metrics    *Metrics
}

func MustSetupCore(cfg CoreConfig) *Core {
	{
		var writer io.Writer = os.Stdout
		if cfg.Log.Path != "" {
			writer = &lumberjack.Logger{
				Filename:   cfg.Log.Path,
				MaxSize:    500, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
				Compress:   true,
			}
		}
		l := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
			Level: cfg.Log.SlogLevel(),
		}))
		slog.SetDefault(l)
	}

	applyContextDefaults(&cfg)

	core := &Core{
		cfg:        cfg,
		metrics:    NewMetrics("insightpilot", "core"),
		httpEngine: gin.New(),
		bus:        eventbus.New(),
	}

	setupSqlStore(core)

	core.rdb = newRedisClient(cfg.Redis)
	core.cache = &redisCache{client: core.rdb}

	core.tokenizer = tokenizer.NewCounter(cfg.AI.Encoding)
	core.classifier = intent.NewClassifier(cfg.Intent)
	core.budget = budget.NewManager(core.tokenizer, cfg.Budget)

	core.srv = srv.SetupSrvs(
		srv.ApplyAI(cfg.AI),
		srv.ApplySeq(&seqGen{rdb: core.rdb, msgStore: core.Store().MessageStore()}),
	)

	return core
}

func applyContextDefaults(cfg *CoreConfig) {
	if cfg.Context.MaxTotalItems <= 0 {
		cfg.Context.MaxTotalItems = types.DEFAULT_MAX_CONTEXT_ITEMS_TOTAL
	}
	if cfg.Context.MaxItemsPerType <= 0 {
		cfg.Context.MaxItemsPerType = types.DEFAULT_MAX_CONTEXT_ITEMS_PER_TYPE
	}
	if cfg.Context.CacheTTLSecond <= 0 {
		cfg.Context.CacheTTLSecond = DEFAULT_CONTEXT_CACHE_TTL
	}
}

// NewTestCore assembles a core around injected stores, cache and sequence
// source so logic tests run without postgres or redis. Production wiring
// stays in MustSetupCore.
func NewTestCore(cfg CoreConfig, provider *sqlstore.Provider, cache types.Cache, seq srv.SeqGen) *Core {
	applyContextDefaults(&cfg)

	core := &Core{
		cfg:        cfg,
		metrics:    NewMetrics("insightpilot", "test"),
		httpEngine: gin.New(),
		bus:        eventbus.New(),
		stores:     func() *sqlstore.Provider { return provider },
		cache:      cache,
	}
	core.tokenizer = tokenizer.NewCounter(cfg.AI.Encoding)
	core.classifier = intent.NewClassifier(cfg.Intent)
	core.budget = budget.NewManager(core.tokenizer, cfg.Budget)
	core.srv = srv.SetupSrvs(srv.ApplySeq(seq))

	return core
}

func setupSqlStore(core *Core) {
	core.stores = sqlstore.MustSetup(core.cfg.Postgres)
	if err := core.stores().Install(); err != nil {
		panic(err)
	}
}

func (s *Core) Cfg() CoreConfig {
	return s.cfg
}

func (s *Core) Store() *sqlstore.Provider {
	return s.stores()
}

func (s *Core) Srv() *srv.Srv {
	return s.srv
}

func (s *Core) Cache() types.Cache {
	return s.cache
}

func (s *Core) Tokenizer() *tokenizer.Counter {
	return s.tokenizer
}

func (s *Core) Classifier() *intent.Classifier {
	return s.classifier
}

func (s *Core) Budget() *budget.Manager {
	return s.budget
}

func (s *Core) Bus() *eventbus.Bus {
	return s.bus
}

func (s *Core) HttpEngine() *gin.Engine {
	return s.httpEngine
}

func (s *Core) Metrics() *Metrics {
	return s.metrics
}
