package main

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/yourorg/textsynth/internal/config"
	"github.com/yourorg/textsynth/internal/logging"
	tsmetrics "github.com/yourorg/textsynth/internal/metrics"
)

type commandContext struct {
	configFlag  *string
	metricsFlag *string

	once      sync.Once
	config    config.Config
	configErr error
	logger    *zap.Logger
}

func newCommandContext(configFlag, metricsFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, metricsFlag: metricsFlag}
}

func (c *commandContext) ensureConfig() (config.Config, error) {
	c.once.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, c.configErr = config.Load(path)
		if c.configErr != nil {
			return
		}
		c.logger = logging.New(c.config.LogLevel)
		if addr := strings.TrimSpace(*c.metricsFlag); addr != "" {
			tsmetrics.Init()
			go func() {
				if err := tsmetrics.Serve(addr); err != nil {
					c.logger.Warn("metrics server stopped", zap.Error(err))
				}
			}()
		}
	})
	return c.config, c.configErr
}

func (c *commandContext) log() *zap.Logger {
	return logging.OrNop(c.logger)
}
