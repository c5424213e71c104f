package main

import (
	"log/slog"
	"strings"
	"sync"

	"bookplate/internal/allocator"
	"bookplate/internal/audit"
	"bookplate/internal/config"
	"bookplate/internal/importer"
	"bookplate/internal/logging"
	"bookplate/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// engine bundles the wired components a command needs. Built per
// invocation; Close releases the audit database handle.
type engine struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	audit    *audit.Log
	alloc    *allocator.Allocator
	importer *importer.Importer
}

func (e *engine) Close() {
	if e == nil {
		return
	}
	if err := e.audit.Close(); err != nil {
		e.logger.Warn("close audit log", "error", err)
	}
}

func (c *commandContext) engine() (*engine, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	st, err := store.New(cfg, logger)
	if err != nil {
		return nil, err
	}

	auditLog, err := audit.Open(cfg)
	if err != nil {
		return nil, err
	}

	alloc, err := allocator.New(st, cfg, auditLog, logger)
	if err != nil {
		_ = auditLog.Close()
		return nil, err
	}

	im, err := importer.New(alloc, logger)
	if err != nil {
		_ = auditLog.Close()
		return nil, err
	}

	return &engine{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		audit:    auditLog,
		alloc:    alloc,
		importer: im,
	}, nil
}

// withEngine builds the engine, runs fn, and cleans up.
func (c *commandContext) withEngine(fn func(*engine) error) error {
	eng, err := c.engine()
	if err != nil {
		return err
	}
	defer eng.Close()
	return fn(eng)
}
