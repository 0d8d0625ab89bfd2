package logger

import (
	"strings"

	"github.com/rs/zerolog"
)

var (
	DEBUG = "debug"
	INFO  = "info"
	WARN  = "warn"
	ERROR = "error"
	FATAL = "fatal"
)

// parseLevel 解析等级名称，未知等级按 info 处理
func parseLevel(levelName string) zerolog.Level {
	switch strings.ToLower(levelName) {
	case DEBUG:
		return zerolog.DebugLevel
	case INFO:
		return zerolog.InfoLevel
	case WARN:
		return zerolog.WarnLevel
	case ERROR:
		return zerolog.ErrorLevel
	case FATAL:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// LevelFileEntry 单个日志级别文件配置
type LevelFileEntry struct {
	Level string // debug, info, warn, error, fatal
	Path  string
}

// LevelFiles 日志级别文件配置集合
type LevelFiles []LevelFileEntry

func (lf LevelFiles) IsEmpty() bool {
	return len(lf) == 0
}

// GetPath 获取指定级别的文件路径
func (lf LevelFiles) GetPath(level string) (string, bool) {
	for _, entry := range lf {
		if entry.Level == level {
			return entry.Path, true
		}
	}
	return "", false
}

func (lf LevelFiles) HasLevel(level string) bool {
	_, ok := lf.GetPath(level)
	return ok
}

// GetPaths 获取所有文件路径
func (lf LevelFiles) GetPaths() []string {
	paths := make([]string, 0, len(lf))
	for _, entry := range lf {
		paths = append(paths, entry.Path)
	}
	return paths
}

type Config struct {
	LevelFiles LevelFiles // 分等级文件路径（空时使用默认 info 文件）
	Dir        string     // 日志目录，仅在 LevelFiles 为空时生效
	MaxSize    int        // 单个日志文件最大大小（MB）
	MaxBackups int        // 旧日志文件最大数量
	MaxAge     int        // 旧日志文件保留天数
	Level      string
	Compress   bool
	Console    bool // 是否同时输出到控制台
}

// DefaultConfig 返回默认配置（err + info 两个文件）
func DefaultConfig() Config {
	return Config{
		LevelFiles: LevelFiles{
			{Level: ERROR, Path: "logs/err.log"},
			{Level: INFO, Path: "logs/info.log"},
		},
		Dir:        "logs",
		MaxSize:    10,
		MaxBackups: 30,
		MaxAge:     7,
		Level:      INFO,
	}
}

type Builder struct {
	config Config
	custom bool
}

func NewBuilder() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) SetMaxSize(size int) *Builder {
	b.config.MaxSize = size
	return b
}

func (b *Builder) SetMaxBackups(backups int) *Builder {
	b.config.MaxBackups = backups
	return b
}

func (b *Builder) SetMaxAge(days int) *Builder {
	b.config.MaxAge = days
	return b
}

func (b *Builder) SetLevel(level string) *Builder {
	b.config.Level = level
	return b
}

func (b *Builder) EnableCompression(enable bool) *Builder {
	b.config.Compress = enable
	return b
}

func (b *Builder) EnableConsoleOutput(enable bool) *Builder {
	b.config.Console = enable
	return b
}

// SetDir 设置日志目录，会把默认的 err/info 文件放到该目录下
func (b *Builder) SetDir(dir string) *Builder {
	if dir == "" {
		return b
	}
	b.config.Dir = dir
	b.config.LevelFiles = LevelFiles{
		{Level: ERROR, Path: dir + "/err.log"},
		{Level: INFO, Path: dir + "/info.log"},
	}
	return b
}

// AddLevelFile 添加单个级别文件配置
// 第一次调用会清掉默认文件配置
func (b *Builder) AddLevelFile(level, path string) *Builder {
	if !b.custom {
		b.config.LevelFiles = nil
		b.custom = true
	}
	b.config.LevelFiles = append(b.config.LevelFiles, LevelFileEntry{
		Level: level,
		Path:  path,
	})
	return b
}

func (b *Builder) Build() error {
	return initLogger(b.config)
}
