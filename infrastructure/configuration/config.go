package configuration

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"trackpub/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	Database    Database    `json:"database"`
	App         App         `json:"app"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	RedisClient RedisClient `json:"redisClient"`
	Logger      Logger      `json:"logger"`
	YouTube     YouTube     `json:"youtube"`
	Studio      Studio      `json:"studio"`
	Storage     Storage     `json:"storage"`
	Publish     Publish     `json:"publish"`
	Jobs        Jobs        `json:"jobs"`
	Webhook     Webhook     `json:"webhook"`
}

type App struct {
	Port        int    `json:"port"`
	SecretKey   string `json:"secretKey"`
	TLSEnabled  bool   `json:"tlsEnabled"`
	TLSCertFile string `json:"tlsCertFile"`
	TLSKeyFile  string `json:"tlsKeyFile"`
}

type Database struct {
	Psql  Db `json:"psql"`
	MySql Db `json:"mysql"`
	Mongo Db `json:"mongo"`
	Mssql Db `json:"mssql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
}

type RedisClient struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Password     string `json:"password"`
	DatabaseName string `json:"databaseName"`
	Username     string `json:"username"`
}

type Logger struct {
	Format string `json:"format"`
}

type YouTube struct {
	ClientID     string   `json:"clientId"`
	ClientSecret string   `json:"clientSecret"`
	RedirectURI  string   `json:"redirectURI"`
	ChannelID    string   `json:"channelId"`
	Scopes       []string `json:"scopes"`
}

// Studio holds credentials for the session-based upload endpoint
type Studio struct {
	Host     string `json:"host"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Storage configures the local root holding fetched assets and rendered videos
type Storage struct {
	Root string `json:"root"`
}

// Publish holds upload defaults shared by both publish strategies
type Publish struct {
	Strategy      string   `json:"strategy"` // oauth or session
	PrivacyStatus string   `json:"privacyStatus"`
	CategoryID    string   `json:"categoryId"`
	MadeForKids   bool     `json:"madeForKids"`
	IsShort       bool     `json:"isShort"`
	BaseTags      []string `json:"baseTags"`
	Attribution   string   `json:"attribution"`
	PlaylistTitle string   `json:"playlistTitle"`
}

// Jobs holds the retry/backoff/timeout knobs per job class, in seconds
type Jobs struct {
	PollInterval       int `json:"pollInterval"`
	BatchSize          int `json:"batchSize"`
	ProcessMaxAttempts int `json:"processMaxAttempts"`
	ProcessBackoff     int `json:"processBackoff"`
	ProcessTimeout     int `json:"processTimeout"`
	PublishMaxAttempts int `json:"publishMaxAttempts"`
	PublishBackoff     int `json:"publishBackoff"`
	PublishTimeout     int `json:"publishTimeout"`
	AnalyticsInterval  int `json:"analyticsInterval"`
}

type Webhook struct {
	RetentionDays int `json:"retentionDays"`
}

var C Config

func init() {
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initPipeline(&C)
	// Prefer https redirect URIs locally when TLS enabled
	if C.App.TLSEnabled {
		if C.YouTube.RedirectURI != "" && !hasHTTPS(C.YouTube.RedirectURI) {
			C.YouTube.RedirectURI = toHTTPSCallback(C.YouTube.RedirectURI)
		}
	}
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error if desired
			logger.GetLogger().Warn("Config file not found")
		} else {
			// Config file was found but another error was produced
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	// Config file found and successfully parsed
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initDatabase(C *Config) {
	logger.GetLogger().WithField("Database", C.Database.Psql.Host).Info("Database configuration")
	if C.Database.Psql.Name == "" {
		C.Database.Psql.Name = os.Getenv("DB_NAME")
	}
	if C.Database.Psql.Host == "" {
		C.Database.Psql.Host = os.Getenv("DB_HOST")
	}
	if C.Database.Psql.User == "" {
		C.Database.Psql.User = os.Getenv("DB_USER")
	}
	if C.Database.Psql.Password == "" {
		C.Database.Psql.Password = os.Getenv("DB_PASSWORD")
	}
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = os.Getenv("DB_PORT")
	}

	// Optional MSSQL config via environment variables (for Azure SQL in production)
	if C.Database.Mssql.Name == "" {
		if v := os.Getenv("MSSQL_DB_NAME"); v != "" {
			C.Database.Mssql.Name = v
		}
	}
	if C.Database.Mssql.Host == "" {
		if v := os.Getenv("MSSQL_HOST"); v != "" {
			C.Database.Mssql.Host = v
		}
	}
	if C.Database.Mssql.Password == "" {
		if v := os.Getenv("MSSQL_PASSWORD"); v != "" {
			C.Database.Mssql.Password = v
		}
	}
	if C.Database.Mssql.Port == "" {
		if v := os.Getenv("MSSQL_PORT"); v != "" {
			C.Database.Mssql.Port = v
		} else {
			C.Database.Mssql.Port = "1433"
		}
	}
	if C.Database.Mssql.User == "" {
		if v := os.Getenv("MSSQL_USER"); v != "" {
			C.Database.Mssql.User = v
		}
	}

	// Fill local/dev sensible defaults for MSSQL if still empty
	if C.Database.Mssql.Host == "" {
		C.Database.Mssql.Host = "localhost"
	}
	if C.Database.Mssql.User == "" {
		C.Database.Mssql.User = "sa"
	}
}

func initApp(C *Config) {
	// Prefer SECRET_KEY from environment for JWT verification; overrides config file when provided
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default 10020
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10020
	}
	// Allow overriding TLS settings via env variables (both enable and disable)
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		switch v {
		case "1", "true", "TRUE", "True":
			C.App.TLSEnabled = true
		case "0", "false", "FALSE", "False":
			C.App.TLSEnabled = false
		}
	}
	if C.App.TLSCertFile == "" {
		C.App.TLSCertFile = os.Getenv("TLS_CERT_FILE")
	}
	if C.App.TLSKeyFile == "" {
		C.App.TLSKeyFile = os.Getenv("TLS_KEY_FILE")
	}
	// Prefer local certs if TLS enabled and paths not provided
	if C.App.TLSEnabled {
		if C.App.TLSCertFile == "" {
			if _, err := os.Stat("certs/localhost.crt"); err == nil {
				C.App.TLSCertFile = "certs/localhost.crt"
			}
		}
		if C.App.TLSKeyFile == "" {
			if _, err := os.Stat("certs/localhost.key"); err == nil {
				C.App.TLSKeyFile = "certs/localhost.key"
			}
		}
	}
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; JWT authentication will fail. Provide SECRET_KEY via environment.")
	}
}

func initPipeline(C *Config) {
	if C.Storage.Root == "" {
		if v := os.Getenv("STORAGE_ROOT"); v != "" {
			C.Storage.Root = v
		} else {
			C.Storage.Root = "storage"
		}
	}
	if v := os.Getenv("PUBLISH_STRATEGY"); v != "" {
		C.Publish.Strategy = v
	}
	if C.Publish.Strategy == "" {
		C.Publish.Strategy = "oauth"
	}
	if C.Publish.PrivacyStatus == "" {
		C.Publish.PrivacyStatus = "public"
	}
	if C.Publish.CategoryID == "" {
		// 10 is the Music category
		C.Publish.CategoryID = "10"
	}
	if len(C.Publish.BaseTags) == 0 {
		C.Publish.BaseTags = []string{"music", "audio"}
	}
	if C.Jobs.PollInterval <= 0 {
		C.Jobs.PollInterval = 15
	}
	if C.Jobs.BatchSize <= 0 {
		C.Jobs.BatchSize = 10
	}
	if C.Jobs.ProcessMaxAttempts <= 0 {
		C.Jobs.ProcessMaxAttempts = 3
	}
	if C.Jobs.ProcessBackoff <= 0 {
		C.Jobs.ProcessBackoff = 10
	}
	if C.Jobs.ProcessTimeout <= 0 {
		C.Jobs.ProcessTimeout = 600
	}
	if C.Jobs.PublishMaxAttempts <= 0 {
		C.Jobs.PublishMaxAttempts = 2
	}
	if C.Jobs.PublishBackoff <= 0 {
		C.Jobs.PublishBackoff = 30
	}
	if C.Jobs.PublishTimeout <= 0 {
		C.Jobs.PublishTimeout = 900
	}
	if C.Jobs.AnalyticsInterval <= 0 {
		C.Jobs.AnalyticsInterval = 3600
	}
	if C.Webhook.RetentionDays <= 0 {
		C.Webhook.RetentionDays = 30
	}
}

// ProcessPolicy exposes the configured process job policy as durations.
func (j Jobs) ProcessPolicy() (maxAttempts int, backoff, timeout time.Duration) {
	return j.ProcessMaxAttempts, time.Duration(j.ProcessBackoff) * time.Second, time.Duration(j.ProcessTimeout) * time.Second
}

// PublishPolicy exposes the configured publish job policy as durations.
func (j Jobs) PublishPolicy() (maxAttempts int, backoff, timeout time.Duration) {
	return j.PublishMaxAttempts, time.Duration(j.PublishBackoff) * time.Second, time.Duration(j.PublishTimeout) * time.Second
}

// helpers to coerce local callback to https
func hasHTTPS(u string) bool { return len(u) >= 8 && u[:8] == "https://" }
func toHTTPSCallback(u string) string {
	// simple swap for localhost callbacks
	if len(u) >= 7 && u[:7] == "http://" {
		return "https://" + u[7:]
	}
	return u
}
