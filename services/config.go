package services

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// ConnectTimeout - 커넥션 획득/접속 타임아웃 (고정)
	ConnectTimeout = 5 * time.Second

	// PoolSize - 동시에 열 수 있는 최대 DB 커넥션 수 (고정)
	PoolSize = 5
)

// Config - 서비스 설정 구조체
type Config struct {
	Port        string   `mapstructure:"port"`
	LogLevel    string   `mapstructure:"log_level"`
	Environment string   `mapstructure:"environment"`
	DB          DBConfig `mapstructure:"db"`
}

// DBConfig - MySQL 연결 설정
type DBConfig struct {
	Host           string        `mapstructure:"host"`
	Name           string        `mapstructure:"name"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	Port           int           `mapstructure:"-"`
	ConnectTimeout time.Duration `mapstructure:"-"`
	PoolSize       int           `mapstructure:"-"`
}

// Addr returns host:port for the MySQL server.
func (c DBConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// LoadConfig - 환경 변수에서 설정 로드
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("environment", "production")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.name", "mydatabase")
	v.SetDefault("db.user", "myuser")
	v.SetDefault("db.password", "mypassword")
	v.SetDefault("db.port", "3306")

	// A variable that is set but empty (DB_PASSWORD= for a passwordless
	// user) overrides the default; only unset variables fall back.
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("port", "PORT")
	v.BindEnv("log_level", "LOG_LEVEL")
	v.BindEnv("environment", "ENVIRONMENT")
	v.BindEnv("db.host", "DB_HOST")
	v.BindEnv("db.name", "DB_NAME")
	v.BindEnv("db.user", "DB_USER")
	v.BindEnv("db.password", "DB_PASSWORD")
	v.BindEnv("db.port", "DB_PORT")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("설정 파싱 실패: %w", err)
	}

	// viper's GetInt swallows garbage as 0, so DB_PORT is parsed by hand.
	rawPort := strings.TrimSpace(v.GetString("db.port"))
	dbPort, err := strconv.Atoi(rawPort)
	if err != nil {
		return nil, fmt.Errorf("DB_PORT must be an integer, got %q: %w", rawPort, err)
	}
	config.DB.Port = dbPort
	config.DB.ConnectTimeout = ConnectTimeout
	config.DB.PoolSize = PoolSize

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks that the configuration is usable. DB host, credentials
// and port range are not checked here; a bad value surfaces as a
// connection error on the first request.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	return nil
}
