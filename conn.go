package sqlmap

import (
	"fmt"
	"net/url"
)

// Config names a provider and where to reach it. DSN wins over the
// provider-specific blocks when both are set.
type Config struct {
	Provider string    `mapstructure:"provider"`
	DSN      string    `mapstructure:"dsn"`
	Postgres *PGConfig `mapstructure:"postgres"`
}

type PGConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN renders the config as a postgres URL accepted by both pgx and lib/pq.
func (c PGConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	host := c.Host
	if c.Port != "" {
		host = fmt.Sprintf("%s:%s", c.Host, c.Port)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     host,
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}

	return u.String()
}

// DataSource returns the data source name to open the provider with.
func (c Config) DataSource() (string, error) {
	p, err := ParseProvider(c.Provider)
	if err != nil {
		return "", err
	}

	if c.DSN != "" {
		return c.DSN, nil
	}

	switch p {
	case ProviderPgx, ProviderPostgres:
		if c.Postgres != nil {
			return c.Postgres.DSN(), nil
		}
	}

	return "", fmt.Errorf("%w: no data source configured for provider %s", ErrConfiguration, p)
}
