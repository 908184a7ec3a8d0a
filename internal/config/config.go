package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer `yaml:"http_server"`
	MySQL      MySQL  `yaml:"mysql"`
	Redis      Redis  `yaml:"redis"`
	Pusher     Pusher `yaml:"pusher"`
	WS         WS     `yaml:"ws"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type MySQL struct {
	DSN string `yaml:"dsn" env:"MYSQL_DSN" env-default:"root:root@tcp(localhost:3306)/casino?parseTime=true&loc=Local"`
}

type Redis struct {
	Address string `yaml:"address" env:"REDIS_ADDR"`
}

type Pusher struct {
	AppID   string `yaml:"app_id" env:"PUSHER_APP_ID"`
	Key     string `yaml:"key" env:"PUSHER_KEY"`
	Secret  string `yaml:"secret" env:"PUSHER_SECRET"`
	Cluster string `yaml:"cluster" env:"PUSHER_CLUSTER"`
}

type WS struct {
	Address string `yaml:"address" env:"WS_ADDR" env-default:"localhost:8081"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	var cfg Config

	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			panic("cannot read config from env: " + err.Error())
		}

		return &cfg
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	return &cfg
}
