package config

import (
	"os"
	"time"

	"NeuroQ/tools"
	"NeuroQ/tools/errs"

	"gopkg.in/yaml.v3"
)

type HTTPConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	CorsOrigins []string `yaml:"cors_origins"`
}

type AuthConfig struct {
	Secret string        `yaml:"secret"`
	Alg    string        `yaml:"alg"`
	TTL    time.Duration `yaml:"ttl"`
}

type SessionConfig struct {
	CloseSuperseded bool          `yaml:"close_superseded"` // 同一用户新连接接管时关闭旧连接
	WriteWait       time.Duration `yaml:"write_wait"`
	EventBuffer     int           `yaml:"event_buffer"`
}

type RedisConfig struct {
	Addr        string        `yaml:"addr"` // 为空则不启用
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	PoolSize    int           `yaml:"pool_size"`
	PresenceTTL time.Duration `yaml:"presence_ttl"`
	StreamMax   int64         `yaml:"stream_max"`
}

type NatsConfig struct {
	Servers      []string `yaml:"servers"` // 为空则不启用
	Name         string   `yaml:"name"`
	Mode         string   `yaml:"mode"` // core | js_push
	EventSubject string   `yaml:"event_subject"`
	RelaySubject string   `yaml:"relay_subject"`
	User         string   `yaml:"user"`
	Password     string   `yaml:"password"`
}

type KafkaConfig struct {
	Brokers     []string `yaml:"brokers"` // 为空则不启用
	TopicPrefix string   `yaml:"topic_prefix"`
	Retries     int      `yaml:"retries"`
	Compression string   `yaml:"compression"`
}

type MongoConfig struct {
	Uri         string `yaml:"uri"` // 为空则不启用
	Database    string `yaml:"database"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	MaxPoolSize int    `yaml:"max_pool_size"`
	MaxRetry    int    `yaml:"max_retry"`
}

type PostgresConfig struct {
	DSN      string `yaml:"dsn"` // 为空则不启用
	MaxConns int32  `yaml:"max_conns"`
}

// NacosConfig points at a remote YAML document layered over the local
// file. Environment variables still win.
type NacosConfig struct {
	Servers   []string `yaml:"servers"` // host:port，为空则不启用
	Namespace string   `yaml:"namespace"`
	Group     string   `yaml:"group"`
	DataID    string   `yaml:"data_id"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Color bool   `yaml:"color"`
}

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Auth     AuthConfig     `yaml:"auth"`
	Session  SessionConfig  `yaml:"session"`
	Redis    RedisConfig    `yaml:"redis"`
	Nats     NatsConfig     `yaml:"nats"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Postgres PostgresConfig `yaml:"postgres"`
	Nacos    NacosConfig    `yaml:"nacos"`
	Log      LogConfig      `yaml:"log"`
}

// Default 默认配置（可直接改），外部依赖默认全部关闭。
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Host:        "0.0.0.0",
			Port:        8000,
			CorsOrigins: []string{"http://localhost:3000", "http://localhost:3001"},
		},
		Auth: AuthConfig{
			Secret: "your-secret-key-change-in-production",
			Alg:    "HS256",
			TTL:    30 * time.Minute,
		},
		Session: SessionConfig{
			CloseSuperseded: true,
			WriteWait:       5 * time.Second,
			EventBuffer:     4096,
		},
		Redis: RedisConfig{
			PresenceTTL: 2 * time.Hour,
			StreamMax:   100_000,
		},
		Nats: NatsConfig{
			Name:         "neuroq-gateway",
			Mode:         "core",
			EventSubject: "neuroq.events",
			RelaySubject: "neuroq.relay",
		},
		Kafka: KafkaConfig{
			TopicPrefix: "neuroq",
			Retries:     5,
			Compression: "snappy",
		},
		Mongo: MongoConfig{
			Database:    "neuroq",
			MaxPoolSize: 20,
			MaxRetry:    3,
		},
		Postgres: PostgresConfig{
			MaxConns: 10,
		},
		Nacos: NacosConfig{
			Group:  "DEFAULT_GROUP",
			DataID: "neuroq.yaml",
		},
		Log: LogConfig{
			Level: "info",
			Color: true,
		},
	}
}

// Load 读取 YAML（path 为空或文件不存在则跳过），再用 NEUROQ_* 环境变量覆盖。
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return Config{}, errs.WrapMsg(err, "parse config", "path", path)
			}
		case os.IsNotExist(err):
		default:
			return Config{}, errs.WrapMsg(err, "read config", "path", path)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Overlay layers a YAML document (e.g. from the config center) over c,
// then re-applies the environment so NEUROQ_* still has the last word.
func (c Config) Overlay(data []byte) (Config, error) {
	out := c
	if err := yaml.Unmarshal(data, &out); err != nil {
		return Config{}, errs.WrapMsg(err, "parse remote config")
	}
	out.applyEnv()
	if err := out.Validate(); err != nil {
		return Config{}, err
	}
	return out, nil
}

func (c *Config) applyEnv() {
	c.HTTP.Host = tools.GetEnv("NEUROQ_HOST", c.HTTP.Host)
	c.HTTP.Port = tools.GetEnvInt("NEUROQ_PORT", c.HTTP.Port)
	c.HTTP.CorsOrigins = tools.GetEnvList("NEUROQ_CORS_ORIGINS", c.HTTP.CorsOrigins)

	c.Auth.Secret = tools.GetEnv("NEUROQ_JWT_SECRET", c.Auth.Secret)
	c.Auth.Alg = tools.GetEnv("NEUROQ_JWT_ALG", c.Auth.Alg)
	c.Auth.TTL = tools.GetEnvDuration("NEUROQ_JWT_TTL", c.Auth.TTL)

	c.Session.CloseSuperseded = tools.GetEnvBool("NEUROQ_CLOSE_SUPERSEDED", c.Session.CloseSuperseded)
	c.Session.WriteWait = tools.GetEnvDuration("NEUROQ_WRITE_WAIT", c.Session.WriteWait)
	c.Session.EventBuffer = tools.GetEnvInt("NEUROQ_EVENT_BUFFER", c.Session.EventBuffer)

	c.Redis.Addr = tools.GetEnv("NEUROQ_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = tools.GetEnv("NEUROQ_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = tools.GetEnvInt("NEUROQ_REDIS_DB", c.Redis.DB)

	c.Nats.Servers = tools.GetEnvList("NEUROQ_NATS_SERVERS", c.Nats.Servers)
	c.Nats.Mode = tools.GetEnv("NEUROQ_NATS_MODE", c.Nats.Mode)
	c.Nats.User = tools.GetEnv("NEUROQ_NATS_USER", c.Nats.User)
	c.Nats.Password = tools.GetEnv("NEUROQ_NATS_PASSWORD", c.Nats.Password)

	c.Kafka.Brokers = tools.GetEnvList("NEUROQ_KAFKA_BROKERS", c.Kafka.Brokers)
	c.Kafka.TopicPrefix = tools.GetEnv("NEUROQ_KAFKA_TOPIC_PREFIX", c.Kafka.TopicPrefix)

	c.Mongo.Uri = tools.GetEnv("NEUROQ_MONGO_URI", c.Mongo.Uri)
	c.Mongo.Database = tools.GetEnv("NEUROQ_MONGO_DATABASE", c.Mongo.Database)

	c.Postgres.DSN = tools.GetEnv("NEUROQ_POSTGRES_DSN", c.Postgres.DSN)

	c.Nacos.Servers = tools.GetEnvList("NEUROQ_NACOS_SERVERS", c.Nacos.Servers)
	c.Nacos.Namespace = tools.GetEnv("NEUROQ_NACOS_NAMESPACE", c.Nacos.Namespace)
	c.Nacos.DataID = tools.GetEnv("NEUROQ_NACOS_DATA_ID", c.Nacos.DataID)
	c.Nacos.Username = tools.GetEnv("NEUROQ_NACOS_USERNAME", c.Nacos.Username)
	c.Nacos.Password = tools.GetEnv("NEUROQ_NACOS_PASSWORD", c.Nacos.Password)

	c.Log.Level = tools.GetEnv("NEUROQ_LOG_LEVEL", c.Log.Level)
	c.Log.Color = tools.GetEnvBool("NEUROQ_LOG_COLOR", c.Log.Color)
}

func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return errs.ErrBadRequest.WrapMsg("invalid http port", "port", c.HTTP.Port)
	}
	if c.Auth.Secret == "" {
		return errs.ErrBadRequest.WrapMsg("jwt secret is required")
	}
	if c.Session.WriteWait <= 0 {
		c.Session.WriteWait = 5 * time.Second
	}
	if c.Session.EventBuffer <= 0 {
		c.Session.EventBuffer = 4096
	}
	return nil
}
