package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Configs struct {
	Env      string
	LogLevel int

	Database DatabaseConfigs
	Bot      BotConfigs
	Lottery  LotteryConfigs
}

type DatabaseConfigs struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

func (d DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type BotConfigs struct {
	Token string

	// HomeGroupID is the group a user must have joined before creating a
	// lottery. Zero disables the gate.
	HomeGroupID int64

	// FormBaseURL is the public address of the lottery creation form.
	FormBaseURL string

	RequestTimeout Duration
}

type LotteryConfigs struct {
	DraftExpiry       Duration
	CreatingExpiry    Duration
	Retention         Duration
	SchedulerInterval Duration
}

// Duration parses TOML values like "90m" or "24h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}

	d.Duration = v
	return nil
}

// Load reads configs from the given TOML file on top of the defaults, then
// applies environment overrides for deployment secrets.
func Load(path string) (Configs, error) {
	configs := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &configs); err != nil {
			return Configs{}, err
		}
	}

	if v := os.Getenv("BOT_TOKEN"); v != "" {
		configs.Bot.Token = v
	}

	if v := os.Getenv("DB_HOST"); v != "" {
		configs.Database.Host = v
	}

	if v := os.Getenv("DB_PORT"); v != "" {
		configs.Database.Port = v
	}

	if v := os.Getenv("DB_NAME"); v != "" {
		configs.Database.Database = v
	}

	if v := os.Getenv("DB_USER"); v != "" {
		configs.Database.User = v
	}

	if v := os.Getenv("DB_PASSWORD"); v != "" {
		configs.Database.Password = v
	}

	return configs, nil
}

func Default() Configs {
	return Configs{
		Env:      "local",
		LogLevel: 1,
		Database: DatabaseConfigs{
			Host: "localhost",
			Port: "3306",
		},
		Bot: BotConfigs{
			RequestTimeout: Duration{10 * time.Second},
		},
		Lottery: LotteryConfigs{
			DraftExpiry:       Duration{60 * time.Minute},
			CreatingExpiry:    Duration{90 * time.Minute},
			Retention:         Duration{24 * time.Hour},
			SchedulerInterval: Duration{time.Minute},
		},
	}
}
