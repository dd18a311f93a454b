package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Data      DataConfig      `mapstructure:"data"`
	Strategy  StrategyConfig  `mapstructure:"strategy"`
	Funds     FundsConfig     `mapstructure:"funds"`
	Tasks     []TaskSeed      `mapstructure:"tasks"`
}

type SchedulerConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

type DatabaseConfig struct {
	Path               string        `mapstructure:"path"`
	BusyTimeout        time.Duration `mapstructure:"busy_timeout"`
	MaxIdleConnections int           `mapstructure:"max_idle_connections"`
}

type ServerConfig struct {
	IP             string        `mapstructure:"ip"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
	File   string `mapstructure:"file"`
}

type DataConfig struct {
	CacheDir     string        `mapstructure:"cache_dir"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	ReportDir    string        `mapstructure:"report_dir"`
	HistoryDays  int           `mapstructure:"history_days"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	FetchRetries uint          `mapstructure:"fetch_retries"`
	FetchWorkers int           `mapstructure:"fetch_workers"`
}

type StrategyConfig struct {
	// 买入/卖出阈值，价格相对均值的百分比
	BuyThreshold  float64 `mapstructure:"buy_threshold"`
	SellThreshold float64 `mapstructure:"sell_threshold"`
	AnalysisDays  int     `mapstructure:"analysis_days"`
}

type FundsConfig struct {
	Watchlist []string           `mapstructure:"watchlist"`
	Owned     map[string]float64 `mapstructure:"owned"`
}

// TaskSeed 配置中的默认任务定义，启动时注册
type TaskSeed struct {
	ID          string         `mapstructure:"id"`
	Name        string         `mapstructure:"name"`
	Kind        string         `mapstructure:"kind"`
	Interval    time.Duration  `mapstructure:"interval"`
	Cron        string         `mapstructure:"cron"`
	MaxRunCount int            `mapstructure:"max_run_count"`
	Enabled     *bool          `mapstructure:"enabled"`
	Parameters  map[string]any `mapstructure:"parameters"`
}

func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// 设置默认值
	viper.SetDefault("scheduler.tick_interval", "30s")

	viper.SetDefault("database.path", "fundtracker.db")
	viper.SetDefault("database.busy_timeout", "5s")
	viper.SetDefault("database.max_idle_connections", 1)

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.max_header_bytes", 1048576)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("log.output", "stdout")

	viper.SetDefault("data.cache_dir", "data/cache")
	viper.SetDefault("data.cache_ttl", "24h")
	viper.SetDefault("data.report_dir", "data/reports")
	viper.SetDefault("data.history_days", 60)
	viper.SetDefault("data.fetch_timeout", "30s")
	viper.SetDefault("data.fetch_retries", 3)
	viper.SetDefault("data.fetch_workers", 5)

	viper.SetDefault("strategy.buy_threshold", 95)
	viper.SetDefault("strategy.sell_threshold", 105)
	viper.SetDefault("strategy.analysis_days", 60)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
