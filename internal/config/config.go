package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	Cron     CronConfig     `mapstructure:"cron"`
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	Scenario ScenarioConfig `mapstructure:"scenario"`
	Risk     RiskConfig     `mapstructure:"risk"`
	Verdict  VerdictConfig  `mapstructure:"verdict"`
	LiveTest LiveTestConfig `mapstructure:"live_test"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	TestSweep      string `mapstructure:"test_sweep"`
	KeywordRefresh string `mapstructure:"keyword_refresh"`
}

type ScraperConfig struct {
	UserAgent   string        `mapstructure:"user_agent"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Parallelism int           `mapstructure:"parallelism"`
	Delay       time.Duration `mapstructure:"delay"`
	RandomDelay time.Duration `mapstructure:"random_delay"`
	MaxListings int           `mapstructure:"max_listings"`
	Platforms   []string      `mapstructure:"platforms"`
	AmazonBase  string        `mapstructure:"amazon_base"`
	EbayBase    string        `mapstructure:"ebay_base"`
	GenericBase string        `mapstructure:"generic_base"`
}

type ScenarioConfig struct {
	DefaultReturnRate float64 `mapstructure:"default_return_rate"`
}

type RiskConfig struct {
	RealisticSalesLimit  int     `mapstructure:"realistic_sales_limit"`
	MediumRiskProfitUSD  float64 `mapstructure:"medium_risk_profit_usd"`
	DefaultProbability   float64 `mapstructure:"default_probability"`
	DefaultTestBudgetUSD float64 `mapstructure:"default_test_budget_usd"`
}

type VerdictConfig struct {
	CostFraction        float64 `mapstructure:"cost_fraction"`
	ShippingFraction    float64 `mapstructure:"shipping_fraction"`
	AdCostPerSaleUSD    float64 `mapstructure:"ad_cost_per_sale_usd"`
	MinConfidence       int     `mapstructure:"min_confidence"`
	MissingFieldPenalty int     `mapstructure:"missing_field_penalty"`
	ThinReviewPenalty   int     `mapstructure:"thin_review_penalty"`
}

type LiveTestConfig struct {
	AvgProfitPerSaleUSD float64 `mapstructure:"avg_profit_per_sale_usd"`
	KillAfterDays       int     `mapstructure:"kill_after_days"`
	KillSpendUSD        float64 `mapstructure:"kill_spend_usd"`
	ScaleMinSales       int     `mapstructure:"scale_min_sales"`
	PauseAfterDays      int     `mapstructure:"pause_after_days"`
	PauseMaxSales       int     `mapstructure:"pause_max_sales"`
}

type CacheConfig struct {
	VerdictTTL time.Duration `mapstructure:"verdict_ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.test_sweep", "@every 15m")
	v.SetDefault("cron.keyword_refresh", "@every 1h")
	v.SetDefault("scraper.user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("scraper.timeout", "15s")
	v.SetDefault("scraper.parallelism", 4)
	v.SetDefault("scraper.delay", "500ms")
	v.SetDefault("scraper.random_delay", "500ms")
	v.SetDefault("scraper.max_listings", 40)
	v.SetDefault("scraper.platforms", []string{"generic"})
	v.SetDefault("scraper.amazon_base", "https://www.amazon.com")
	v.SetDefault("scraper.ebay_base", "https://www.ebay.com")
	v.SetDefault("scraper.generic_base", "")
	v.SetDefault("scenario.default_return_rate", 0.05)
	v.SetDefault("risk.realistic_sales_limit", 100)
	v.SetDefault("risk.medium_risk_profit_usd", 5)
	v.SetDefault("risk.default_probability", 0.5)
	v.SetDefault("risk.default_test_budget_usd", 150)
	v.SetDefault("verdict.cost_fraction", 0.35)
	v.SetDefault("verdict.shipping_fraction", 0.10)
	v.SetDefault("verdict.ad_cost_per_sale_usd", 8)
	v.SetDefault("verdict.min_confidence", 50)
	v.SetDefault("verdict.missing_field_penalty", 20)
	v.SetDefault("verdict.thin_review_penalty", 10)
	v.SetDefault("live_test.avg_profit_per_sale_usd", 30)
	v.SetDefault("live_test.kill_after_days", 14)
	v.SetDefault("live_test.kill_spend_usd", 500)
	v.SetDefault("live_test.scale_min_sales", 5)
	v.SetDefault("live_test.pause_after_days", 10)
	v.SetDefault("live_test.pause_max_sales", 2)
	v.SetDefault("cache.verdict_ttl", "1h")
	v.SetDefault("cache.max_entries", 512)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects unusable tunables. A failure here is a deployment error
// and fatal at startup, never a per-request condition.
func (c Config) Validate() error {
	if c.Risk.RealisticSalesLimit <= 0 {
		return fmt.Errorf("risk.realistic_sales_limit must be positive, got %d", c.Risk.RealisticSalesLimit)
	}
	if c.Risk.DefaultProbability <= 0 || c.Risk.DefaultProbability > 1 {
		return fmt.Errorf("risk.default_probability must be in (0,1], got %v", c.Risk.DefaultProbability)
	}
	if c.Risk.DefaultTestBudgetUSD <= 0 {
		return fmt.Errorf("risk.default_test_budget_usd must be positive, got %v", c.Risk.DefaultTestBudgetUSD)
	}
	if c.Scenario.DefaultReturnRate < 0 || c.Scenario.DefaultReturnRate >= 1 {
		return fmt.Errorf("scenario.default_return_rate must be in [0,1), got %v", c.Scenario.DefaultReturnRate)
	}
	if c.Verdict.CostFraction <= 0 || c.Verdict.CostFraction >= 1 {
		return fmt.Errorf("verdict.cost_fraction must be in (0,1), got %v", c.Verdict.CostFraction)
	}
	if c.Verdict.ShippingFraction < 0 || c.Verdict.ShippingFraction >= 1 {
		return fmt.Errorf("verdict.shipping_fraction must be in [0,1), got %v", c.Verdict.ShippingFraction)
	}
	if c.Verdict.MinConfidence < 0 || c.Verdict.MinConfidence > 100 {
		return fmt.Errorf("verdict.min_confidence must be in [0,100], got %d", c.Verdict.MinConfidence)
	}
	if c.LiveTest.AvgProfitPerSaleUSD <= 0 {
		return fmt.Errorf("live_test.avg_profit_per_sale_usd must be positive, got %v", c.LiveTest.AvgProfitPerSaleUSD)
	}
	if c.Cache.VerdictTTL <= 0 {
		return fmt.Errorf("cache.verdict_ttl must be positive, got %v", c.Cache.VerdictTTL)
	}
	return nil
}
