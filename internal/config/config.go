package config

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	DAOName    string `env:"DAO_NAME,default=Collector DAO"`
	DAOAddress string `env:"DAO_ADDRESS,required"`
	APIKEY     string `env:"API_KEY,required"`
	RPCURL     string `env:"RPC_URL"`
	SentryURL  string `env:"SENTRY_URL"`
	DiscordURL string `env:"DISCORD_URL"`

	DBUser       string `env:"DB_USER"`
	DBPassword   string `env:"DB_PASSWORD"`
	DBName       string `env:"DB_NAME"`
	DBHost       string `env:"DB_HOST"`
	DBReaderHost string `env:"DB_READER_HOST"`
}

// UsePostgres is true when a postgres host was configured, sqlite is used otherwise
func (c *Config) UsePostgres() bool {
	return c.DBHost != ""
}

func New(ctx context.Context, envpath string) (*Config, error) {
	if envpath != "" {
		log.Default().Println("loading env from file: ", envpath)
		err := godotenv.Load(envpath)
		if err != nil {
			return nil, err
		}
	}

	return process(ctx, envconfig.OsLookuper())
}

func process(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}
	err := envconfig.ProcessWith(ctx, cfg, l)
	if err != nil {
		return nil, err
	}

	if cfg.DBReaderHost == "" {
		cfg.DBReaderHost = cfg.DBHost
	}

	return cfg, nil
}
