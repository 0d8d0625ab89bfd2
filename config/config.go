package config

import (
	"os"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lazylions/lazy-leaderboard/pkg/logger"
)

type Server struct {
	APIAddr    string `toml:"api_addr"`
	HealthAddr string `toml:"health_addr"`
}

// Sources 上游数据源配置
type Sources struct {
	AlchemyBaseURL    string        `toml:"alchemy_base_url"`
	AlchemyAPIKey     string        `toml:"alchemy_api_key"`
	LionsContract     string        `toml:"lions_contract"`
	CubsContract      string        `toml:"cubs_contract"`
	ChainbaseBaseURL  string        `toml:"chainbase_base_url"`
	ChainbaseAPIKey   string        `toml:"chainbase_api_key"`
	ChainID           int           `toml:"chain_id"`
	TokenContract     string        `toml:"token_contract"`
	CreatorBidBaseURL string        `toml:"creatorbid_base_url"`
	CreatorBidAgentID string        `toml:"creatorbid_agent_id"`
	HTTPTimeout       time.Duration `toml:"http_timeout"`
	ProxyAddr         string        `toml:"proxy_addr"` // SOCKS5，空表示直连
}

type ENS struct {
	RPCURL        string        `toml:"rpc_url"`
	Registry      string        `toml:"registry"`
	TTL           time.Duration `toml:"ttl"`
	ResolverDelay time.Duration `toml:"resolver_delay"`
}

type Paging struct {
	MaxPages            int           `toml:"max_pages"`
	PageSize            int           `toml:"page_size"`
	PageDelay           time.Duration `toml:"page_delay"`
	RateLimitBackoff    time.Duration `toml:"rate_limit_backoff"`
	MaxRateLimitRetries int           `toml:"max_rate_limit_retries"` // 0 表示不限次数
}

type Store struct {
	Backend  string `toml:"backend"` // redis | memory | sql
	RedisURL string `toml:"redis_url"`
}

type MySQL struct {
	Driver             string        `toml:"driver"` // mysql | sqlite
	DSN                string        `toml:"dsn"`
	SlaveAddr          []string      `toml:"slave_addr"`
	MaxIdleConnections int           `toml:"max_idle_connections"`
	MaxOpenConnections int           `toml:"max_open_connections"`
	SetConnMaxLifetime int           `toml:"set_conn_max_lifetime"`
	SetConnMaxIdleTime int           `toml:"set_conn_max_idle_time"`
	ProxyEnabled       bool          `toml:"proxy_enabled"`
	ProxyAddr          string        `toml:"proxy_addr"`
	CleanInterval      time.Duration `toml:"clean_interval"`
}

type Refresh struct {
	Enabled    bool   `toml:"enabled"`
	Schedule   string `toml:"schedule"` // HH:MM，UTC
	RunOnStart bool   `toml:"run_on_start"`
}

type Leaderboard struct {
	SnapshotTTL   time.Duration `toml:"snapshot_ttl"`
	NFTLimit      int           `toml:"nft_limit"`
	NFTPageSize   int           `toml:"nft_page_size"`
	TokenPageSize int           `toml:"token_page_size"`
}

type NATS struct {
	Endpoint string `toml:"endpoint"` // 空表示不发布
	Subject  string `toml:"subject"`
}

type Logger struct {
	Level      string `toml:"level"`
	Dir        string `toml:"dir"`
	MaxSize    int    `toml:"max_size"`
	MaxBackups int    `toml:"max_backups"`
	MaxAge     int    `toml:"max_age"`
	Compress   bool   `toml:"compress"`
	Console    bool   `toml:"console"`
}

type Config struct {
	Server      Server      `toml:"server"`
	Sources     Sources     `toml:"sources"`
	ENS         ENS         `toml:"ens"`
	Paging      Paging      `toml:"paging"`
	Store       Store       `toml:"store"`
	MySQL       MySQL       `toml:"mysql"`
	Refresh     Refresh     `toml:"refresh"`
	Leaderboard Leaderboard `toml:"leaderboard"`
	NATS        NATS        `toml:"nats"`
	Logger      Logger      `toml:"log"`
}

var (
	cfg         *Config
	cfgPath     string
	cfgLock     sync.RWMutex
	lastModTime time.Time
	stopChan    chan struct{}
	stopOnce    sync.Once
)

func Default() *Config {
	return &Config{
		Server: Server{
			APIAddr:    "0.0.0.0:8080",
			HealthAddr: "0.0.0.0:16800",
		},
		Sources: Sources{
			AlchemyBaseURL:    "https://eth-mainnet.g.alchemy.com",
			LionsContract:     "0x8943c7bac1914c9a7aba750bf2b6b09fd21037e0",
			CubsContract:      "0xE6A9826E3B6638d01dE95B55690bd4EE7EfF9441",
			ChainbaseBaseURL:  "https://api.chainbase.online",
			ChainID:           8453,
			TokenContract:     "0xe4da9889db3d1987856e56da08ec7e9f484f6434",
			CreatorBidBaseURL: "https://creator.bid",
			CreatorBidAgentID: "673cfa0e5ace33e545076103",
			HTTPTimeout:       15 * time.Second,
		},
		ENS: ENS{
			Registry:      "0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e",
			TTL:           24 * time.Hour,
			ResolverDelay: 100 * time.Millisecond,
		},
		Paging: Paging{
			MaxPages:            10,
			PageSize:            50,
			PageDelay:           300 * time.Millisecond,
			RateLimitBackoff:    2 * time.Second,
			MaxRateLimitRetries: 30,
		},
		Store: Store{
			Backend:  "redis",
			RedisURL: "redis://localhost:6379/0",
		},
		MySQL: MySQL{
			Driver:             "mysql",
			DSN:                "root:password@tcp(localhost:3306)/leaderboard?charset=utf8mb4&parseTime=True&loc=UTC",
			SlaveAddr:          []string{},
			MaxIdleConnections: 8,
			MaxOpenConnections: 32,
			SetConnMaxLifetime: 7200,
			SetConnMaxIdleTime: 3600,
			ProxyAddr:          "127.0.0.1:7890",
			CleanInterval:      time.Hour,
		},
		Refresh: Refresh{
			Enabled:  true,
			Schedule: "20:15",
		},
		Leaderboard: Leaderboard{
			SnapshotTTL:   10 * time.Minute,
			NFTLimit:      250,
			NFTPageSize:   25,
			TokenPageSize: 50,
		},
		NATS: NATS{
			Subject: "leaderboard.ens.refreshed",
		},
		Logger: Logger{
			Level:      "info",
			Dir:        "logs",
			MaxSize:    10,
			MaxBackups: 30,
			MaxAge:     7,
		},
	}
}

// applyEnv 环境变量覆盖密钥类配置
func applyEnv(c *Config) {
	if v := os.Getenv("ALCHEMY_API_KEY"); v != "" {
		c.Sources.AlchemyAPIKey = v
	}
	if v := os.Getenv("CHAINBASE_API_KEY"); v != "" {
		c.Sources.ChainbaseAPIKey = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Store.RedisURL = v
	}
	if c.ENS.RPCURL == "" && c.Sources.AlchemyAPIKey != "" {
		c.ENS.RPCURL = c.Sources.AlchemyBaseURL + "/v2/" + c.Sources.AlchemyAPIKey
	}
}

func Load(path string) error {
	c := Default()
	if _, err := toml.DecodeFile(path, c); err != nil {
		return err
	}
	applyEnv(c)

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	cfgLock.Lock()
	defer cfgLock.Unlock()
	cfg = c
	cfgPath = path
	lastModTime = info.ModTime()

	return nil
}

// Get 返回当前配置，未加载时返回默认配置
func Get() *Config {
	cfgLock.RLock()
	defer cfgLock.RUnlock()
	if cfg == nil {
		c := Default()
		applyEnv(c)
		return c
	}
	return cfg
}

// Init 初始化配置并启动定期重载（默认10秒）。
// 重载只即时生效日志等级，其余配置在启动时已被各组件复制，修改后需重启进程。
func Init(path string) error {
	return InitWithInterval(path, 10*time.Second)
}

func InitWithInterval(path string, interval time.Duration) error {
	if err := Load(path); err != nil {
		return err
	}

	stopChan = make(chan struct{})
	stopOnce = sync.Once{}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				reloadIfNeeded()
			case <-stopChan:
				return
			}
		}
	}()

	return nil
}

// Stop 停止配置重载
func Stop() {
	if stopChan != nil {
		stopOnce.Do(func() { close(stopChan) })
	}
}

// reloadIfNeeded 仅在文件修改时重载，并应用新的日志等级
func reloadIfNeeded() {
	cfgLock.RLock()
	path := cfgPath
	lastMod := lastModTime
	oldLevel := ""
	if cfg != nil {
		oldLevel = cfg.Logger.Level
	}
	cfgLock.RUnlock()

	if path == "" {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("config stat failed")
		return
	}

	if info.ModTime().After(lastMod) {
		if err = Load(path); err != nil {
			logger.Error().Err(err).Str("path", path).Msg("config reload failed")
			return
		}

		level := Get().Logger.Level
		if level != oldLevel {
			logger.SetLevel(level)
		}
		logger.Info().Str("path", path).Str("log_level", level).Msg("config reloaded, restart to apply settings other than log level")
	}
}
