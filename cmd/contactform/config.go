package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type config struct {
	Addr          string        `env:"CONTACTFORM_ADDR" envDefault:":3000"`
	LogLevel      string        `env:"CONTACTFORM_LOG_LEVEL" envDefault:"info"`
	Title         string        `env:"CONTACTFORM_TITLE" envDefault:"Contact Form"`
	ClearOnSubmit bool          `env:"CONTACTFORM_CLEAR_ON_SUBMIT" envDefault:"false"`
	ContextTTL    time.Duration `env:"CONTACTFORM_CONTEXT_TTL" envDefault:"30m"`
}

func loadConfig() (config, error) {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
