package factory

import (
	"github.com/mikey/email-verifier/internal/input"
	"github.com/mikey/email-verifier/internal/utils"
	"go.uber.org/zap"
)

// TextProcessorFactory creates text processors and the input loader built on them
type TextProcessorFactory struct {
	logger *zap.Logger
}

// NewTextProcessorFactory creates a new TextProcessorFactory
func NewTextProcessorFactory(logger *zap.Logger) *TextProcessorFactory {
	return &TextProcessorFactory{
		logger: logger,
	}
}

// CreateTextProcessor creates a new TextProcessor
func (f *TextProcessorFactory) CreateTextProcessor() *utils.TextProcessor {
	return utils.NewTextProcessor(f.logger)
}

// CreateLoader creates an email list loader
func (f *TextProcessorFactory) CreateLoader(textProcessor *utils.TextProcessor) *input.Loader {
	return input.NewLoader(textProcessor, f.logger)
}
