package config

import (
	"fmt"
	"os"

	"camrent/internal/pricing"
	"gopkg.in/yaml.v3"
)

// PromotionsConfig is the root of promotions.yaml.
type PromotionsConfig struct {
	Promotions []pricing.Promotion `yaml:"promotions"`
}

// LoadPromotions reads and validates the promotions file.
func LoadPromotions(path string) ([]pricing.Promotion, error) {
	if path == "" {
		path = "configs/promotions.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read promotions config: %w", err)
	}

	var cfg PromotionsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse promotions config: %w", err)
	}

	if len(cfg.Promotions) == 0 {
		return nil, fmt.Errorf("promotions config %s defines no promotions", path)
	}
	if err := pricing.Validate(cfg.Promotions); err != nil {
		return nil, fmt.Errorf("validate promotions config: %w", err)
	}
	return cfg.Promotions, nil
}
