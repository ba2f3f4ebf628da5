package factory

import (
	"github.com/mikey/email-verifier/internal/adapters/backend"
	"github.com/mikey/email-verifier/internal/config"
	"github.com/mikey/email-verifier/internal/utils"
	"go.uber.org/zap"
)

// BackendFactory creates verification backend clients
type BackendFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewBackendFactory creates a new backend factory
func NewBackendFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *BackendFactory {
	return &BackendFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateBackendClient creates an HTTP client for the configured backend
func (f *BackendFactory) CreateBackendClient() (*backend.Client, error) {
	if err := f.cfg.ValidateBackend(); err != nil {
		return nil, err
	}

	backendCfg := f.cfg.GetBackend()
	f.logger.Info("Using verification backend",
		zap.String("url", backendCfg.URL),
		zap.Duration("timeout", backendCfg.Timeout))

	return backend.NewClient(backendCfg.URL, nil, f.logger, f.textProcessor)
}
