package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	// EnvEventsWorkers overrides the dispatcher worker count.
	EnvEventsWorkers = "EVENTS_WORKERS"

	// EnvEventsQueueSize overrides the dispatcher queue size.
	EnvEventsQueueSize = "EVENTS_QUEUE_SIZE"

	// EnvEventsRedisAddr overrides the Redis address for event publication.
	EnvEventsRedisAddr = "EVENTS_REDIS_ADDR"

	// EnvEventsRedisChannel overrides the Redis pub/sub channel.
	EnvEventsRedisChannel = "EVENTS_REDIS_CHANNEL"
)

// EventsConfig contains event dispatch configuration. When RedisAddr is
// empty, events go to the log sink only.
type EventsConfig struct {
	Workers      int    `toml:"workers"`
	QueueSize    int    `toml:"queue_size"`
	RedisAddr    string `toml:"redis_addr"`
	RedisChannel string `toml:"redis_channel"`
}

// Finalize applies defaults, loads environment overrides, and validates the events configuration.
func (c *EventsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *EventsConfig) Merge(overlay *EventsConfig) {
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.QueueSize != 0 {
		c.QueueSize = overlay.QueueSize
	}
	if overlay.RedisAddr != "" {
		c.RedisAddr = overlay.RedisAddr
	}
	if overlay.RedisChannel != "" {
		c.RedisChannel = overlay.RedisChannel
	}
}

func (c *EventsConfig) loadDefaults() {
	if c.Workers == 0 {
		c.Workers = 2
	}
	if c.QueueSize == 0 {
		c.QueueSize = 256
	}
	if c.RedisChannel == "" {
		c.RedisChannel = "dossier.events"
	}
}

func (c *EventsConfig) loadEnv() {
	if v := os.Getenv(EnvEventsWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := os.Getenv(EnvEventsQueueSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.QueueSize = n
		}
	}
	if v := os.Getenv(EnvEventsRedisAddr); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv(EnvEventsRedisChannel); v != "" {
		c.RedisChannel = v
	}
}

func (c *EventsConfig) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive")
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("queue_size must be positive")
	}
	return nil
}
