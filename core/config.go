package core

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address         string
		DebugHost       string
		Host            string
		ShutdownTimeout time.Duration
		JWTAudience     string
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RedisConfig struct {
		Address  string
		Password string
		DB       int
		Channel  string
	}

	AnalyticsConfig struct {
		TimeZone     string
		ReportPrefix string
	}

	Config struct {
		AppName         string
		Build           string
		Env             string
		Debug           bool
		TestMode        bool
		SecretKey       string
		FromEmail       string
		FrontendBaseURL string
		SendgridApiKey  string
		RollbarToken    string

		Server    ServerConfig
		Database  DatabaseConfig
		Redis     RedisConfig
		Analytics AnalyticsConfig
	}
)

// Address returns the "host:port" of the database server.
func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Location loads the default analytics time zone, falling back to the server's local zone.
func (c AnalyticsConfig) Location() *time.Location {
	if c.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// NewConfig reads the app configuration from `config/.env.<env>` (if any) and the environment.
// Environment variables are prefixed with the upper-cased ENV, eg. DEV_DATABASE_HOST.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "EduConnect")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "zq8-v2c)kd1$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("fromEmail", "EduConnect <noreply@localhost>")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtAudience", "authenticated")

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "educonnect")
	v.SetDefault("database.user", "educonnect")
	v.SetDefault("database.password", "educonnect")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "educontact-broadcast")

	v.SetDefault("analytics.timeZone", "")
	v.SetDefault("analytics.reportPrefix", "educonnect-analytics")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		AppName:         v.GetString("appName"),
		Build:           v.GetString("build"),
		Env:             env,
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("testMode"),
		SecretKey:       v.GetString("secretKey"),
		FromEmail:       v.GetString("fromEmail"),
		FrontendBaseURL: v.GetString("frontendBaseURL"),
		SendgridApiKey:  v.GetString("sendgridApiKey"),
		RollbarToken:    v.GetString("rollbarToken"),
		Server: ServerConfig{
			Address:         v.GetString("server.address"),
			DebugHost:       v.GetString("server.debugHost"),
			Host:            v.GetString("server.host"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			JWTAudience:     v.GetString("server.jwtAudience"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			Channel:  v.GetString("redis.channel"),
		},
		Analytics: AnalyticsConfig{
			TimeZone:     v.GetString("analytics.timeZone"),
			ReportPrefix: v.GetString("analytics.reportPrefix"),
		},
	}
}

// NewTestConfig returns a Config suitable for tests: no .env lookup, test mode on.
func NewTestConfig() *Config {
	return &Config{
		AppName:   "EduConnect",
		Build:     "test",
		Env:       "TEST",
		TestMode:  true,
		SecretKey: "secret",
		FromEmail: "EduConnect <noreply@localhost>",
		Server: ServerConfig{
			ShutdownTimeout: time.Second,
			JWTAudience:     "authenticated",
		},
		Redis:     RedisConfig{Channel: "educontact-broadcast"},
		Analytics: AnalyticsConfig{TimeZone: "UTC", ReportPrefix: "educonnect-analytics"},
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("%s[%s] build=%s", c.AppName, c.Env, c.Build)
}
