package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Databases     Databases     `yaml:"databases"`
	QuerySettings QuerySettings `yaml:"query_settings"`
}

type Databases struct {
	Postgres string `yaml:"postgres"`
	MySQL    string `yaml:"mysql"`
}

type QuerySettings struct {
	DefaultTopUsers int `yaml:"default_top_users"`
}

func LoadConfig(path string) (*Config, error) {
	config := &Config{}

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(file, config)
	if err != nil {
		return nil, err
	}

	// Environment overrides, highest precedence after flags.
	if url := os.Getenv("ORDERS_POSTGRES_URL"); url != "" {
		config.Databases.Postgres = url
	}
	if url := os.Getenv("ORDERS_MYSQL_URL"); url != "" {
		config.Databases.MySQL = url
	}

	return config, nil
}
