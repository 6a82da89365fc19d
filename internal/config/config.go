package config

import (
	"errors"
	"fmt"
	"time"
)

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	Database    Database `envPrefix:"DATABASE_"`
	Expiry      Expiry   `envPrefix:"EXPIRY_"`

	Timezone          string `env:"TIMEZONE" envDefault:"Asia/Jakarta"`
	DispatchQueueSize int    `env:"DISPATCH_QUEUE_SIZE" envDefault:"64"`

	Discord  Discord  `envPrefix:"DISCORD_"`
	Midtrans Midtrans `envPrefix:"MIDTRANS_"`
}

type Discord struct {
	Token   string `env:"TOKEN"`
	GuildID string `env:"GUILD_ID"`
	RoleID  string `env:"ROLE_ID"`
}

type Midtrans struct {
	ServerKey       string `env:"SERVER_KEY"`
	Environment     string `env:"ENVIRONMENT" envDefault:"sandbox"` // sandbox | production
	VerifySignature bool   `env:"VERIFY_SIGNATURE" envDefault:"false"`
}

type Database struct {
	Driver string `env:"DRIVER" envDefault:"sqlite"` // sqlite | mysql
	URL    string `env:"URL" envDefault:"membership.db"`
}

type Expiry struct {
	Schedule   string `env:"SCHEDULE" envDefault:"@every 24h"`
	NoticeDays int    `env:"NOTICE_DAYS" envDefault:"3"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

// Validate reports the first missing or malformed setting.
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return errors.New("DISCORD_TOKEN is required")
	}
	if c.Discord.GuildID == "" {
		return errors.New("DISCORD_GUILD_ID is required")
	}
	if c.Discord.RoleID == "" {
		return errors.New("DISCORD_ROLE_ID is required")
	}
	if c.Midtrans.ServerKey == "" {
		return errors.New("MIDTRANS_SERVER_KEY is required")
	}
	switch c.Midtrans.Environment {
	case "sandbox", "production":
	default:
		return fmt.Errorf("MIDTRANS_ENVIRONMENT must be sandbox or production, got %q", c.Midtrans.Environment)
	}
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be sqlite or mysql, got %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Expiry.NoticeDays < 1 {
		return errors.New("EXPIRY_NOTICE_DAYS must be at least 1")
	}
	if c.DispatchQueueSize < 1 {
		return errors.New("DISPATCH_QUEUE_SIZE must be at least 1")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone. Calendar-day comparisons (expiry threshold,
// monthly export) are made in this location.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) ServerAddr() string {
	return c.HTTP.Host + ":" + c.HTTP.Port
}
