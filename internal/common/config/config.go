// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int `mapstructure:"port"`
	ReadTimeout     int `mapstructure:"read_timeout"`     // seconds
	WriteTimeout    int `mapstructure:"write_timeout"`    // seconds
	ShutdownTimeout int `mapstructure:"shutdown_timeout"` // seconds
}

type DatabaseConfig struct {
	// Driver selects the search store backing the collections:
	// "elasticsearch" or "postgres".
	Driver        string              `mapstructure:"driver"`
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses   []string `mapstructure:"addresses"`
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
	IndexPrefix string   `mapstructure:"index_prefix"` // e.g. "workspace" -> workspace_customers
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CacheConfig struct {
	// Backend is "memory" or "redis".
	Backend    string `mapstructure:"backend"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

// ResolverConfig carries the fan-out caps and the autonomy gate. The caps are
// deliberate bounds on request storms, not incidental limits.
type ResolverConfig struct {
	MaxTermsPerClass      int     `mapstructure:"max_terms_per_class"`
	MaxCustomerEnrichment int     `mapstructure:"max_customer_enrichment"`
	MaxProjectEnrichment  int     `mapstructure:"max_project_enrichment"`
	MaxInFlight           int     `mapstructure:"max_in_flight"`
	DefaultLimit          int     `mapstructure:"default_limit"`
	ConfidenceThreshold   float64 `mapstructure:"confidence_threshold"`
}

type DefaultsConfig struct {
	// InvoiceScanLimit bounds the max-sequence scan for invoice numbering.
	// Tenants with more invoices than this in a year can see duplicate
	// provisional numbers; the commit-time allocator is authoritative.
	InvoiceScanLimit      int     `mapstructure:"invoice_scan_limit"`
	DefaultCurrency       string  `mapstructure:"default_currency"`
	DefaultNetDays        int     `mapstructure:"default_net_days"`
	ProductiveHoursPerDay float64 `mapstructure:"productive_hours_per_day"`
	CreditRiskOverdueDays int     `mapstructure:"credit_risk_overdue_days"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
