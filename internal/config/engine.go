package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/common"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/engine"
)

// Viper keys for the pricing settings.
const (
	KeyMinSampleSize          = "pricing.min_sample_size"
	KeyLowConfidenceThreshold = "pricing.low_confidence_threshold"
	KeyDefaultOPRate          = "pricing.default_op_rate"
	KeyCatalogPageSize        = "pricing.catalog_page_size"
	KeyDatabasePath           = "database.path"
)

// DefaultDatabasePath is where the database lives when database.path is unset.
const DefaultDatabasePath = "~/.local/share/pricebook/pricebook.db"

// EnvKeyReplacer maps nested keys like pricing.min_sample_size to
// PRICING_MIN_SAMPLE_SIZE for environment lookups.
func EnvKeyReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}

// SetDefaults registers the defaults for every pricing key on v.
func SetDefaults(v *viper.Viper) {
	defaults := engine.DefaultConfig()
	v.SetDefault(KeyMinSampleSize, defaults.Pricing.MinSampleSize)
	v.SetDefault(KeyLowConfidenceThreshold, defaults.Pricing.LowConfidenceThreshold)
	v.SetDefault(KeyDefaultOPRate, defaults.Pricing.DefaultOPRate)
	v.SetDefault(KeyCatalogPageSize, defaults.CatalogPageSize)
	v.SetDefault(KeyDatabasePath, DefaultDatabasePath)
}

// LoadEngineConfig reads the learn and extrapolate settings from v. Keys that
// are not set fall back to engine.DefaultConfig.
func LoadEngineConfig(v *viper.Viper) (engine.Config, error) {
	config := engine.DefaultConfig()

	if v.IsSet(KeyMinSampleSize) {
		config.Pricing.MinSampleSize = v.GetInt(KeyMinSampleSize)
	}
	if v.IsSet(KeyLowConfidenceThreshold) {
		config.Pricing.LowConfidenceThreshold = v.GetFloat64(KeyLowConfidenceThreshold)
	}
	if v.IsSet(KeyDefaultOPRate) {
		config.Pricing.DefaultOPRate = v.GetFloat64(KeyDefaultOPRate)
	}
	if v.IsSet(KeyCatalogPageSize) {
		config.CatalogPageSize = v.GetInt(KeyCatalogPageSize)
	}

	if err := validateEngineConfig(config); err != nil {
		return engine.Config{}, err
	}
	return config, nil
}

// DatabasePath returns the expanded database path from v.
func DatabasePath(v *viper.Viper) string {
	path := v.GetString(KeyDatabasePath)
	if path == "" {
		path = DefaultDatabasePath
	}
	return ExpandPath(path)
}

func validateEngineConfig(config engine.Config) error {
	if config.Pricing.MinSampleSize < 1 {
		return fmt.Errorf("%w: %s must be at least 1", common.ErrInvalidConfig, KeyMinSampleSize)
	}
	if config.Pricing.LowConfidenceThreshold < 0 || config.Pricing.LowConfidenceThreshold > 1 {
		return fmt.Errorf("%w: %s must be between 0 and 1", common.ErrInvalidConfig, KeyLowConfidenceThreshold)
	}
	if config.Pricing.DefaultOPRate < 0 {
		return fmt.Errorf("%w: %s must not be negative", common.ErrInvalidConfig, KeyDefaultOPRate)
	}
	if config.CatalogPageSize < 1 {
		return fmt.Errorf("%w: %s must be at least 1", common.ErrInvalidConfig, KeyCatalogPageSize)
	}
	return nil
}
