// Command contactform serves the contact form as a live page.
package main

import (
	"log"

	"github.com/go-via/contactform"
	"github.com/go-via/contactform/via"
)

// NewContactFormApp builds the app serving the contact form on "/".
func NewContactFormApp(cfg config) (*via.V, error) {
	lvl, err := via.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	v := via.New()
	v.Config(via.Options{
		ServerAddress: cfg.Addr,
		LogLvl:        lvl,
		DocumentTitle: cfg.Title,
		ContextTTL:    cfg.ContextTTL,
	})
	v.Page("/", func(c *via.Context) {
		contactFormPage(c, contactform.Options{ClearOnSubmit: cfg.ClearOnSubmit})
	})
	return v, nil
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("[fatal] %v", err)
	}
	v, err := NewContactFormApp(cfg)
	if err != nil {
		log.Fatalf("[fatal] %v", err)
	}
	v.Start()
}
