package configs

import (
	"log"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config struct
type Config struct {
	App      `mapstructure:"app"`
	Commerce `mapstructure:"commerce"`
	Redis    `mapstructure:"redis"`
	Postgres `mapstructure:"postgres"`
	Webhook  `mapstructure:"webhook"`
}

// App struct
type App struct {
	Debug bool   `mapstructure:"debug"`
	Env   string `mapstructure:"env"`
	Port  string `mapstructure:"port"`
}

// Commerce struct - credentials and endpoint of the commerce platform
type Commerce struct {
	BaseURL      string `mapstructure:"base_url"`
	APIVersion   string `mapstructure:"api_version"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	Timeout      int    `mapstructure:"timeout"` // seconds
}

// Redis struct - session store connection
type Redis struct {
	Host       string `mapstructure:"host"`
	Port       string `mapstructure:"port"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	SessionTTL int    `mapstructure:"session_ttl"` // seconds, 0 = no expiry
}

// Postgres struct
type Postgres struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DbName   string `mapstructure:"database"`
	SSLMode  bool   `mapstructure:"sslmode"`
}

// Webhook struct - shared secret the transport presents on the event
// endpoint
type Webhook struct {
	Token string `mapstructure:"token"`
}

var config Config

// InitViper func
func InitViper(path, env string) {
	getConfig(path, env)
}

// GetViper func
func GetViper() *Config {
	return &config
}

func getConfig(path, env string) {
	viper.SetConfigName("config")
	viper.AddConfigPath(path)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		log.Println("Config file has changed: ", e.Name)
	})
	err = viper.Unmarshal(&config)
	if err != nil {
		log.Fatalln(err)
	}
}
