package config

import (
	"errors"
	"fmt"
)

func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr required")
	}
	if c.Server.MaxHistory <= 0 {
		return fmt.Errorf("server.max_history must be positive, got %d", c.Server.MaxHistory)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes)
	}
	if c.Server.RatePerSec < 0 {
		return errors.New("server.rate_per_sec must not be negative")
	}
	if c.Agent.BaseURL == "" {
		return errors.New("agent.base_url required")
	}
	if c.Agent.TimeoutMs <= 0 {
		return fmt.Errorf("agent.timeout_ms must be positive, got %d", c.Agent.TimeoutMs)
	}
	if m := c.Agent.Mode; m != "TEST" && m != "FINAL" {
		return fmt.Errorf("agent.mode must be TEST or FINAL, got %q", m)
	}
	return nil
}
