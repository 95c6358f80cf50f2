package workflow

import (
	"log/slog"

	"github.com/JaimeStill/counsel/internal/extraction"
	"github.com/JaimeStill/counsel/internal/risk"
)

// Runtime bundles the dependencies that workflow stages require.
// It is constructed by higher-level composition code from Infrastructure.
type Runtime struct {
	Parser   *extraction.Parser
	Assessor *risk.Assessor
	Logger   *slog.Logger
}
