package dal

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	proxymysql "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/proxy"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	"github.com/lazylions/lazy-leaderboard/config"
	"github.com/lazylions/lazy-leaderboard/internal/models"
	"github.com/lazylions/lazy-leaderboard/pkg/logger"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

type GormLogger struct{}

func (l GormLogger) Printf(f string, args ...any) {
	log.Printf(f, args...)
}

var (
	db     *gorm.DB
	dbErr  error
	dbOnce sync.Once
)

// InitDB 初始化数据库连接（只执行一次）
func InitDB(cfg config.MySQL) error {
	dbOnce.Do(func() {
		db, dbErr = Open(cfg)
	})
	return dbErr
}

// registerProxyDialer 注册 SOCKS5 代理拨号器，DSN 需使用 dial(host:port) 协议
func registerProxyDialer(proxyAddr string) error {
	dialer, err := proxy.SOCKS5("tcp", proxyAddr, nil, &net.Dialer{})
	if err != nil {
		return fmt.Errorf("create proxy dialer failed: %w", err)
	}

	proxymysql.RegisterDialContext("dial", func(ctx context.Context, addr string) (net.Conn, error) {
		return dialer.Dial("tcp", addr)
	})

	return nil
}

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverMySQL, "":
		return mysql.Open(dsn), nil
	case DriverSQLite:
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

// Open 按配置打开数据库，mysql 支持从库读写分离与代理
func Open(cfg config.MySQL) (*gorm.DB, error) {
	if cfg.ProxyEnabled && cfg.Driver != DriverSQLite {
		if err := registerProxyDialer(cfg.ProxyAddr); err != nil {
			return nil, err
		}
		logger.Infof("mysql proxy enabled: %s", cfg.ProxyAddr)
	}

	newLogger := gormlogger.New(
		GormLogger{}, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	dial, err := dialector(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dial, &gorm.Config{
		Logger:      newLogger,
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s failed: %w", cfg.Driver, err)
	}

	maxIdleTime := time.Hour
	if cfg.SetConnMaxIdleTime > 0 {
		maxIdleTime = time.Duration(cfg.SetConnMaxIdleTime) * time.Second
	}
	maxLifetime := 2 * time.Hour
	if cfg.SetConnMaxLifetime > 0 {
		maxLifetime = time.Duration(cfg.SetConnMaxLifetime) * time.Second
	}

	// 从库只用于读
	if len(cfg.SlaveAddr) > 0 && cfg.Driver != DriverSQLite {
		var replicas []gorm.Dialector
		for _, addr := range cfg.SlaveAddr {
			replicas = append(replicas, mysql.Open(addr))
		}
		plugin := dbresolver.Register(dbresolver.Config{
			Replicas:          replicas,
			TraceResolverMode: true,
		}).
			SetConnMaxIdleTime(maxIdleTime).
			SetConnMaxLifetime(maxLifetime).
			SetMaxIdleConns(cfg.MaxIdleConnections).
			SetMaxOpenConns(cfg.MaxOpenConnections)
		if err = conn.Use(plugin); err != nil {
			return nil, fmt.Errorf("register dbresolver failed: %w", err)
		}
		logger.Infof("mysql %d slave(s) configured", len(cfg.SlaveAddr))
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB failed: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConnections)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConnections)
	sqlDB.SetConnMaxIdleTime(maxIdleTime)
	sqlDB.SetConnMaxLifetime(maxLifetime)

	logger.Info().
		Str("driver", cfg.Driver).
		Int("max_idle", cfg.MaxIdleConnections).
		Int("max_open", cfg.MaxOpenConnections).
		Dur("max_idle_time", maxIdleTime).
		Dur("max_lifetime", maxLifetime).
		Msg("database connected")

	return conn, nil
}

func DB() *gorm.DB {
	return db
}

func CloseDB() {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Error().Err(err).Msg("get sql.DB failed")
		return
	}
	if err = sqlDB.Close(); err != nil {
		logger.Error().Err(err).Msg("close database failed")
		return
	}

	logger.Info().Msg("database closed")
}

// AutoMigrate 自动迁移表结构
// 失败时记录警告日志，不中断服务启动
func AutoMigrate(conn *gorm.DB) {
	if conn == nil {
		log.Error().Msg("database not initialized, skip auto migration")
		return
	}

	modelList := []any{
		&models.EnsNameCache{},
	}

	for _, model := range modelList {
		if err := conn.AutoMigrate(model); err != nil {
			log.Warn().Err(err).
				Str("table", getTableName(model)).
				Msg("auto migrate failed, continuing anyway")
		} else {
			log.Info().Str("table", getTableName(model)).Msg("auto migrate success")
		}
	}
}

func getTableName(model any) string {
	if t, ok := model.(interface{ TableName() string }); ok {
		return t.TableName()
	}
	return "unknown"
}
