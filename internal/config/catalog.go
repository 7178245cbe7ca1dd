package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Catalog holds the lounge's tunable prices. It is read from catalog.yml and
// reloaded in place when the file changes.
type Catalog struct {
	Pricing      PricingDefaults  `mapstructure:"pricing" json:"pricing"`
	Subscription SubscriptionPlan `mapstructure:"subscription" json:"subscription"`
	Goods        []CatalogItem    `mapstructure:"goods" json:"goods"`
}

// PricingDefaults seeds the setup wizard.
type PricingDefaults struct {
	CyberPricePerMin int64  `mapstructure:"cyberPricePerMin" json:"cyber_price_per_min"`
	GamePricePerMin  int64  `mapstructure:"gamePricePerMin" json:"game_price_per_min"`
	Currency         string `mapstructure:"currency" json:"currency"`
}

type SubscriptionPlan struct {
	DefaultPrice int64 `mapstructure:"defaultPrice" json:"default_price"`
	Days         int   `mapstructure:"days" json:"days"`
}

type CatalogItem struct {
	Label    string `mapstructure:"label" json:"label"`
	Category string `mapstructure:"category" json:"category"`
	Price    int64  `mapstructure:"price" json:"price"`
}

func DefaultCatalog() Catalog {
	return Catalog{
		Pricing: PricingDefaults{
			CyberPricePerMin: 100,
			GamePricePerMin:  200,
			Currency:         "MGA",
		},
		Subscription: SubscriptionPlan{
			DefaultPrice: 50000,
			Days:         30,
		},
		Goods: []CatalogItem{
			{Label: "Film HD / 4K", Category: "FILM", Price: 1000},
			{Label: "Saison Série", Category: "FILM", Price: 5000},
			{Label: "Installation Jeu PC", Category: "GAME", Price: 10000},
			{Label: "Logiciel PRO", Category: "SOFTWARE", Price: 15000},
		},
	}
}

type CatalogHolder struct {
	current atomic.Value // holds Catalog
}

// NewStaticCatalogHolder returns a holder that never reloads.
func NewStaticCatalogHolder(catalog Catalog) *CatalogHolder {
	holder := &CatalogHolder{}
	holder.current.Store(catalog)
	return holder
}

func NewCatalogHolder(cfg Config, log *zap.Logger) (*CatalogHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("config.catalog")

	v := viper.New()
	if cfg.CatalogPath != "" {
		v.SetConfigFile(cfg.CatalogPath)
	} else {
		v.SetConfigName("catalog")
		v.SetConfigType("yml")
		v.AddConfigPath("/var/lib/cyberdesk/config")
		v.AddConfigPath("/etc/cyberdesk")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CYBERDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		log.Info("catalog file not found, using defaults")
		return NewStaticCatalogHolder(DefaultCatalog()), nil
	}

	catalog, err := decodeCatalog(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticCatalogHolder(catalog)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeCatalog(v)
		if err != nil {
			log.Warn("catalog reload ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("catalog reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *CatalogHolder) Get() Catalog {
	return h.current.Load().(Catalog)
}

func decodeCatalog(v *viper.Viper) (Catalog, error) {
	var catalog Catalog
	if err := v.UnmarshalKey("catalog", &catalog); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	catalog = catalog.withDefaults()
	if err := validateCatalog(catalog); err != nil {
		return Catalog{}, err
	}
	return catalog, nil
}

func (c Catalog) withDefaults() Catalog {
	defaults := DefaultCatalog()
	if c.Pricing.CyberPricePerMin == 0 {
		c.Pricing.CyberPricePerMin = defaults.Pricing.CyberPricePerMin
	}
	if c.Pricing.GamePricePerMin == 0 {
		c.Pricing.GamePricePerMin = defaults.Pricing.GamePricePerMin
	}
	if strings.TrimSpace(c.Pricing.Currency) == "" {
		c.Pricing.Currency = defaults.Pricing.Currency
	}
	if c.Subscription.DefaultPrice == 0 {
		c.Subscription.DefaultPrice = defaults.Subscription.DefaultPrice
	}
	if c.Subscription.Days == 0 {
		c.Subscription.Days = defaults.Subscription.Days
	}
	if len(c.Goods) == 0 {
		c.Goods = defaults.Goods
	}
	return c
}

func validateCatalog(c Catalog) error {
	if c.Pricing.CyberPricePerMin <= 0 || c.Pricing.GamePricePerMin <= 0 {
		return errors.New("catalog.pricing prices must be positive")
	}
	if c.Subscription.DefaultPrice <= 0 {
		return errors.New("catalog.subscription.defaultPrice must be positive")
	}
	if c.Subscription.Days <= 0 {
		return errors.New("catalog.subscription.days must be positive")
	}
	for _, item := range c.Goods {
		if strings.TrimSpace(item.Label) == "" || item.Price <= 0 {
			return fmt.Errorf("catalog.goods entry %q is invalid", item.Label)
		}
	}
	return nil
}
