package config

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/NeuralTrust/VisitorGate/pkg/domain/visitor"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Log          LogConfig          `mapstructure:"log"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Protection   ProtectionConfig   `mapstructure:"protection"`
	Moonito      MoonitoConfig      `mapstructure:"moonito"`
	VerdictCache VerdictCacheConfig `mapstructure:"verdict_cache"`
	Content      ContentConfig      `mapstructure:"content"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	UpstreamURL string `mapstructure:"upstream_url"`
	// FailOpen lets requests through when the verdict service fails.
	FailOpen      bool          `mapstructure:"fail_open"`
	ProxyHeader   string        `mapstructure:"proxy_header"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	ProxyTimeout  time.Duration `mapstructure:"proxy_timeout"`
	BodyLimit     int           `mapstructure:"body_limit"`
	ShutdownGrace time.Duration `mapstructure:"shutdown_grace"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
	Dir   string `mapstructure:"dir"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TLS      bool   `mapstructure:"tls"`
}

type ProtectionConfig struct {
	IsProtected           bool           `mapstructure:"is_protected"`
	APIPublicKey          string         `mapstructure:"api_public_key"`
	APISecretKey          string         `mapstructure:"api_secret_key"`
	UnwantedVisitorTo     visitor.Target `mapstructure:"unwanted_visitor_to"`
	UnwantedVisitorAction visitor.Action `mapstructure:"unwanted_visitor_action"`
}

func (p ProtectionConfig) Visitor() visitor.Config {
	return visitor.Config{
		IsProtected:           p.IsProtected,
		APIPublicKey:          p.APIPublicKey,
		APISecretKey:          p.APISecretKey,
		UnwantedVisitorTo:     p.UnwantedVisitorTo,
		UnwantedVisitorAction: p.UnwantedVisitorAction,
	}
}

type MoonitoConfig struct {
	BaseURL            string        `mapstructure:"base_url"`
	Timeout            time.Duration `mapstructure:"timeout"`
	BreakerMaxFailures uint32        `mapstructure:"breaker_max_failures"`
	BreakerTimeout     time.Duration `mapstructure:"breaker_timeout"`
}

type VerdictCacheConfig struct {
	// TTL of cached verdicts. Zero disables the cache.
	TTL time.Duration `mapstructure:"ttl"`
}

type ContentConfig struct {
	Timeout            time.Duration `mapstructure:"timeout"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
}

var globalConfig Config

// Load reads config.yaml from configPath, ./config or the working directory
// and overlays environment variables (server.port -> SERVER_PORT). A missing
// file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaultValues(v)

	globalConfig = Config{}
	if err := loadConfigFile(v, configPath, "config", &globalConfig); err != nil {
		return nil, err
	}
	return &globalConfig, nil
}

func loadConfigFile(v *viper.Viper, configPath, fileName string, out interface{}) error {
	v.SetConfigName(fileName)
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file %s.yaml: %w", fileName, err)
		}
	}

	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		targetHook,
		actionHook,
	))
	if err := v.Unmarshal(out, hooks); err != nil {
		return fmt.Errorf("failed to unmarshal %s config: %w", fileName, err)
	}
	return nil
}

func setDefaultValues(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.upstream_url", "")
	v.SetDefault("server.fail_open", false)
	v.SetDefault("server.proxy_header", "")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.proxy_timeout", "30s")
	v.SetDefault("server.body_limit", 8*1024*1024)
	v.SetDefault("server.shutdown_grace", "10s")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.dir", "logs")

	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.tls", false)

	v.SetDefault("protection.is_protected", false)
	v.SetDefault("protection.api_public_key", "")
	v.SetDefault("protection.api_secret_key", "")
	v.SetDefault("protection.unwanted_visitor_to", "")
	v.SetDefault("protection.unwanted_visitor_action", "redirect")

	v.SetDefault("moonito.base_url", "https://moonito.net")
	v.SetDefault("moonito.timeout", "10s")
	v.SetDefault("moonito.breaker_max_failures", 0)
	v.SetDefault("moonito.breaker_timeout", "30s")

	v.SetDefault("verdict_cache.ttl", "0s")

	v.SetDefault("content.timeout", "10s")
	v.SetDefault("content.insecure_skip_verify", false)
}

var (
	targetType = reflect.TypeOf(visitor.Target{})
	actionType = reflect.TypeOf(visitor.Action(0))
)

// targetHook decodes unwanted_visitor_to once, as a number or a URL.
func targetHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != targetType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return visitor.ParseTarget(v), nil
	case int:
		return visitor.ParseTarget(strconv.Itoa(v)), nil
	case int64:
		return visitor.ParseTarget(strconv.FormatInt(v, 10)), nil
	case float64:
		return visitor.ParseTarget(strconv.FormatFloat(v, 'f', -1, 64)), nil
	case nil:
		return visitor.Target{}, nil
	default:
		return nil, fmt.Errorf("unsupported unwanted_visitor_to value of type %s", from)
	}
}

func actionHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != actionType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return visitor.ParseAction(v)
	case int:
		return visitor.ParseAction(strconv.Itoa(v))
	case int64:
		return visitor.ParseAction(strconv.FormatInt(v, 10))
	default:
		return data, nil
	}
}

func GetConfig() *Config {
	return &globalConfig
}
