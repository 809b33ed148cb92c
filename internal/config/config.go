package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	DB     DBConfig     `mapstructure:"db"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Cron   CronConfig   `mapstructure:"cron"`
	Model  ModelConfig  `mapstructure:"model"`
	Near   NearConfig   `mapstructure:"near"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type AuthConfig struct {
	Disabled bool   `mapstructure:"disabled"`
	Secret   string `mapstructure:"secret"`
	Issuer   string `mapstructure:"issuer"`
}

type CronConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Revalue string `mapstructure:"revalue"`
}

// ModelConfig controls the risk classifier artifact lifecycle. The artifact
// for Version is loaded at startup; when no artifact exists yet, a model is
// trained on synthetic data and persisted under ArtifactDir.
type ModelConfig struct {
	Version          string        `mapstructure:"version"`
	ArtifactDir      string        `mapstructure:"artifact_dir"`
	SyntheticSamples int           `mapstructure:"synthetic_samples"`
	TrainEpochs      int           `mapstructure:"train_epochs"`
	LearningRate     float64       `mapstructure:"learning_rate"`
	StaleAfter       time.Duration `mapstructure:"stale_after"`
}

type NearConfig struct {
	Network    string        `mapstructure:"network"`
	ContractID string        `mapstructure:"contract_id"`
	AccountID  string        `mapstructure:"account_id"`
	RPCURL     string        `mapstructure:"rpc_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("auth.disabled", false)
	v.SetDefault("auth.issuer", "loanmarket")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.revalue", "@every 6h")
	v.SetDefault("model.version", "1.0.0")
	v.SetDefault("model.artifact_dir", "artifacts")
	v.SetDefault("model.synthetic_samples", 5000)
	v.SetDefault("model.train_epochs", 400)
	v.SetDefault("model.learning_rate", 0.1)
	v.SetDefault("model.stale_after", "24h")
	v.SetDefault("near.network", "testnet")
	v.SetDefault("near.contract_id", "loanmarket.testnet")
	v.SetDefault("near.account_id", "loanmarket.testnet")
	v.SetDefault("near.rpc_url", "https://rpc.testnet.near.org")
	v.SetDefault("near.timeout", "10s")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
