package compiler

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/Derthenier/Akhanda-sub004/internal/common"
	"github.com/Derthenier/Akhanda-sub004/internal/interfaces"
)

// NewBackend builds the configured compiler backend.
func NewBackend(config common.CompilerConfig, logger arbor.ILogger) (interfaces.CompilerBackend, error) {
	switch config.Backend {
	case "", "naga":
		return NewNagaBackend(logger, config.WarningsAsErrors), nil
	default:
		return nil, fmt.Errorf("unsupported compiler backend %q (supported: naga)", config.Backend)
	}
}
