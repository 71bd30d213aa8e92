package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultMaxConcurrency       = 8
	DefaultSubscriptionCacheTTL = 30 * time.Second
	DefaultDeliveryJobID        = "webhooks.deliver"
	DefaultDeliveryTopic        = "webhooks.delivery"
	DefaultDeliveryExchange     = "webhooks"
)

type DispatchConfig struct {
	MaxConcurrency       int           `koanf:"max_concurrency" mapstructure:"max_concurrency"`
	SubscriptionCacheTTL time.Duration `koanf:"subscription_cache_ttl" mapstructure:"subscription_cache_ttl"`
}

type DeliveryConfig struct {
	JobID    string `koanf:"job_id" mapstructure:"job_id"`
	Topic    string `koanf:"topic" mapstructure:"topic"`
	Exchange string `koanf:"exchange" mapstructure:"exchange"`
}

type Config struct {
	ServiceName string         `koanf:"service_name" mapstructure:"service_name"`
	Dispatch    DispatchConfig `koanf:"dispatch" mapstructure:"dispatch"`
	Delivery    DeliveryConfig `koanf:"delivery" mapstructure:"delivery"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "webhooks",
		Dispatch: DispatchConfig{
			MaxConcurrency:       DefaultMaxConcurrency,
			SubscriptionCacheTTL: DefaultSubscriptionCacheTTL,
		},
		Delivery: DeliveryConfig{
			JobID:    DefaultDeliveryJobID,
			Topic:    DefaultDeliveryTopic,
			Exchange: DefaultDeliveryExchange,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Dispatch.MaxConcurrency < 0 {
		return fmt.Errorf("core: dispatch.max_concurrency must not be negative")
	}
	if c.Dispatch.SubscriptionCacheTTL < 0 {
		return fmt.Errorf("core: dispatch.subscription_cache_ttl must not be negative")
	}
	return nil
}

// Concurrency returns the effective fan-out bound.
func (c DispatchConfig) Concurrency() int {
	if c.MaxConcurrency <= 0 {
		return DefaultMaxConcurrency
	}
	return c.MaxConcurrency
}
