package email

import (
	"fmt"
	"time"
)

type Config struct {
	APIKey string
	// BaseURL overrides the Resend API endpoint. Empty uses the default.
	BaseURL string
	Timeout time.Duration
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("RESEND_API_KEY is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("email timeout must be positive")
	}
	return nil
}
