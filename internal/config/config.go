package config

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string           `yaml:"env" env-default:"development"` // environment
	PublicURL  string           `yaml:"public_url" env-default:"http://localhost:8080"`
	HTTPServer HTTPServerConfig `yaml:"http_server"`
	Database   DatabaseConfig   `yaml:"database"`
	JWT        JWTConfig        `yaml:"jwt"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	ImageHost  ImageHostConfig  `yaml:"image_host"`
	Payment    PaymentConfig    `yaml:"payment"`
	Migrations MigrationsConfig `yaml:"migrations"`
}

// HTTPServerConfig структура http сервера
type HTTPServerConfig struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// DatabaseConfig структура по работе с БД
type DatabaseConfig struct {
	Host     string `yaml:"host" env-default:"localhost"`
	Port     int    `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env-required:"true"`
	Password string `yaml:"-" env:"DB_PASSWORD" env-required:"true"`
	Name     string `yaml:"name" env-required:"true"`
}

// JWTConfig настройка jwt: секрет один, TTL зависит от назначения токена
type JWTConfig struct {
	Secret      string `yaml:"-" env:"JWT_SECRET" env-required:"true"`
	TokenTTL    int    `yaml:"token_ttl" env-default:"60"`    // сессионный токен, минуты
	MailLinkTTL int    `yaml:"mail_link_ttl" env-default:"5"` // токены из писем (verify/reset), минуты
}

// SMTPConfig настройка почтового транспорта
type SMTPConfig struct {
	Host string `yaml:"host" env-default:"localhost"`
	Port int    `yaml:"port" env-default:"1025"`
	From string `yaml:"from" env-default:"no-reply@e-store.local"`
}

// ImageHostConfig настройка внешнего хостинга картинок
type ImageHostConfig struct {
	BaseURL string `yaml:"base_url" env-default:"https://api.imagehost.example"`
	APIKey  string `yaml:"-" env:"IMAGE_HOST_API_KEY"`
}

// PaymentConfig настройка платёжного шлюза
type PaymentConfig struct {
	BaseURL   string `yaml:"base_url" env-default:"https://api.korapay.com"`
	SecretKey string `yaml:"-" env:"PAYMENT_SECRET_KEY"`
	Currency  string `yaml:"currency" env-default:"NGN"`
}

type MigrationsConfig struct {
	Path string `yaml:"path" env-default:"./migrations"`
}

// MustLoad - если не загружаем - паникуем
func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		log.Fatal("CONFIG_PATH not exists")
	}
	return MustLoadByPath(configPath)
}

func fetchConfigPath() string {
	var path string

	flag.StringVar(&path, "config", "", "path to config file")
	flag.Parse()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	return path
}

func MustLoadByPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file not found: " + configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("can't read config file %s", configPath)
	}

	return &cfg
}
