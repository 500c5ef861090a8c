package ocr

import (
	"fmt"
	"sort"

	"github.com/nodewee/docrag/pkg/interfaces"
	"github.com/nodewee/docrag/pkg/logger"
	"github.com/nodewee/docrag/pkg/types"
	"github.com/nodewee/docrag/pkg/utils"
)

// DefaultOCRSelector maps a strategy to a registered engine
type DefaultOCRSelector struct {
	logger  *logger.Logger
	engines map[types.OCRStrategy]interfaces.OCREngine
}

// NewOCRSelector creates a selector with the given engines registered
func NewOCRSelector(log *logger.Logger, engines map[types.OCRStrategy]interfaces.OCREngine) *DefaultOCRSelector {
	if log == nil {
		log = logger.Nop()
	}
	s := &DefaultOCRSelector{
		logger:  log,
		engines: make(map[types.OCRStrategy]interfaces.OCREngine, len(engines)),
	}
	for strategy, engine := range engines {
		s.engines[strategy] = engine
	}
	return s
}

// SelectOCRStrategy returns the engine registered for strategy
func (s *DefaultOCRSelector) SelectOCRStrategy(strategy types.OCRStrategy) (interfaces.OCREngine, error) {
	engine, exists := s.engines[strategy]
	if !exists {
		return nil, utils.NewValidationError(fmt.Sprintf("unknown OCR engine: %s", strategy), nil)
	}
	if !engine.IsAvailable() {
		return nil, utils.NewUnsupportedError(fmt.Sprintf("OCR engine '%s' is not available on this system", engine.Name()), nil)
	}

	s.logger.Info("Selected OCR engine: %s", engine.GetDescription())
	return engine, nil
}

// GetAvailableStrategies returns the strategies whose engines can run, sorted by name
func (s *DefaultOCRSelector) GetAvailableStrategies() []types.OCRStrategy {
	var available []types.OCRStrategy
	for strategy, engine := range s.engines {
		if engine.IsAvailable() {
			available = append(available, strategy)
		}
	}
	sort.Slice(available, func(i, j int) bool { return available[i] < available[j] })
	return available
}
