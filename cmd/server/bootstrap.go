package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/ceyewan/seckill/cache"
	"github.com/ceyewan/seckill/clog"
	"github.com/ceyewan/seckill/config"
	"github.com/ceyewan/seckill/connector"
	"github.com/ceyewan/seckill/db"
	"github.com/ceyewan/seckill/dlock"
	"github.com/ceyewan/seckill/idgen"
	"github.com/ceyewan/seckill/ratelimit"
	"github.com/ceyewan/seckill/seckill"
	"github.com/ceyewan/seckill/server"
	"github.com/ceyewan/seckill/signin"
	"github.com/ceyewan/seckill/xerrors"
)

// app 持有全部已装配的组件与其关闭顺序
type app struct {
	cfg    *config.AppConfig
	logger clog.Logger
	srv    *http.Server

	closers []func() error
}

// newApp 按依赖顺序装配：连接器 → 基础组件 → 域服务 → HTTP
func newApp(ctx context.Context, cfg *config.AppConfig) (*app, error) {
	logger, err := clog.New(&cfg.Log)
	if err != nil {
		return nil, xerrors.Wrap(err, "init logger failed")
	}

	a := &app{cfg: cfg, logger: logger}

	redisConn, err := connector.NewRedis(&cfg.Redis, connector.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := redisConn.Connect(ctx); err != nil {
		return nil, xerrors.Wrap(err, "connect redis failed")
	}
	a.closers = append(a.closers, redisConn.Close)

	database, health, err := a.openDatabase(ctx, logger)
	if err != nil {
		a.close()
		return nil, err
	}

	lockOpts := []dlock.Option{
		dlock.WithLogger(logger),
		dlock.WithIdentity(dlock.NewIdentity()),
	}
	switch cfg.Lock.Driver {
	case dlock.DriverEtcd:
		etcdConn, err := connector.NewEtcd(&cfg.Etcd, connector.WithLogger(logger))
		if err != nil {
			a.close()
			return nil, err
		}
		if err := etcdConn.Connect(ctx); err != nil {
			a.close()
			return nil, xerrors.Wrap(err, "connect etcd failed")
		}
		a.closers = append(a.closers, etcdConn.Close)
		health["etcd"] = etcdConn.HealthCheck
		lockOpts = append(lockOpts, dlock.WithEtcdConnector(etcdConn))
	default:
		lockOpts = append(lockOpts, dlock.WithRedisConnector(redisConn))
	}

	locker, err := dlock.New(&cfg.Lock, lockOpts...)
	if err != nil {
		a.close()
		return nil, err
	}
	a.closers = append(a.closers, locker.Close)

	objCache, err := cache.New(&cfg.Cache,
		cache.WithRedisConnector(redisConn), cache.WithLogger(logger))
	if err != nil {
		a.close()
		return nil, err
	}

	gen, err := idgen.New(redisConn, cfg.Seckill.IDKeyPrefix, idgen.WithLogger(logger))
	if err != nil {
		a.close()
		return nil, err
	}

	store, err := seckill.NewStore(database, objCache, logger)
	if err != nil {
		a.close()
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		a.close()
		return nil, xerrors.Wrap(err, "migrate failed")
	}

	stock := seckill.NewStockStore(redisConn, cfg.Seckill.StockKeyPrefix)

	purchaseSvc, err := seckill.NewService(store, stock, locker, gen,
		seckill.WithServiceLogger(logger),
		seckill.WithMetrics(seckill.NewMetrics(nil)))
	if err != nil {
		a.close()
		return nil, err
	}

	signSvc, err := signin.NewService(objCache, signin.WithLogger(logger))
	if err != nil {
		a.close()
		return nil, err
	}

	var purchaseLimit gin.HandlerFunc
	if rl := cfg.Seckill.RateLimit; rl.Rate > 0 && rl.Burst > 0 {
		limiter, err := ratelimit.New(redisConn, "ratelimit:", ratelimit.WithLogger(logger))
		if err != nil {
			a.close()
			return nil, err
		}
		purchaseLimit = ratelimit.GinMiddleware(limiter, rl, func(c *gin.Context) string {
			uid := c.GetHeader("X-User-ID")
			if uid == "" {
				// 缺身份的请求交给处理器按参数错误拒绝
				return ""
			}
			return "purchase:" + uid
		})
	}

	health["redis"] = redisConn.HealthCheck
	router := server.NewRouter(server.Deps{
		Purchase:      purchaseSvc,
		Sign:          signSvc,
		Logger:        logger,
		Health:        health,
		PurchaseLimit: purchaseLimit,
	})

	a.srv = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return a, nil
}

// openDatabase 按配置的驱动建立数据库连接
func (a *app) openDatabase(ctx context.Context, logger clog.Logger) (db.DB, map[string]server.HealthFunc, error) {
	health := make(map[string]server.HealthFunc)
	dbOpts := []db.Option{db.WithLogger(logger)}

	switch a.cfg.DB.Driver {
	case "sqlite":
		conn, err := connector.NewSQLite(&a.cfg.SQLite, connector.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		if err := conn.Connect(ctx); err != nil {
			return nil, nil, xerrors.Wrap(err, "open sqlite failed")
		}
		a.closers = append(a.closers, conn.Close)
		health["sqlite"] = conn.HealthCheck
		dbOpts = append(dbOpts, db.WithSQLiteConnector(conn))
	default:
		conn, err := connector.NewMySQL(&a.cfg.MySQL, connector.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		if err := conn.Connect(ctx); err != nil {
			return nil, nil, xerrors.Wrap(err, "connect mysql failed")
		}
		a.closers = append(a.closers, conn.Close)
		health["mysql"] = conn.HealthCheck
		dbOpts = append(dbOpts, db.WithMySQLConnector(conn))
	}

	database, err := db.New(&a.cfg.DB, dbOpts...)
	if err != nil {
		return nil, nil, err
	}
	return database, health, nil
}

// run 启动 HTTP 服务并在收到退出信号后优雅关停
func (a *app) run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("http server starting", clog.String("addr", a.srv.Addr))
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		return a.srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// close 逆序释放资源
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close component failed", clog.Error(err))
		}
	}
	a.closers = nil
}
