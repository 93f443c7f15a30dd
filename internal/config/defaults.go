package config

import (
	"docparse-desktop/internal/domain"
)

// DefaultServerURL points at a local parsing service instance.
const DefaultServerURL = "http://127.0.0.1:8100"

// DefaultProcessingConfig returns the baseline processing options matching
// the server-side form defaults.
func DefaultProcessingConfig() domain.ProcessingConfig {
	return domain.ProcessingConfig{
		Backend:                BackendDefault,
		Language:               domain.LanguageFor(BackendDefault),
		Method:                 domain.MethodAuto,
		Priority:               0,
		FormulaEnable:          true,
		TableEnable:            true,
		KeyframeOCRBackend:     string(domain.BackendPaddleOCRVL),
		WatermarkConfThreshold: 0.35,
		WatermarkDilation:      10,
		MergeTables:            true,
		RelevelTitles:          true,
		LayoutShapeMode:        domain.LayoutShapeAuto,
	}
}

// BackendDefault is the engine preselected on first launch.
const BackendDefault = domain.BackendAuto

// DefaultSettings returns baseline configuration for first launch.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		ServerURL: DefaultServerURL,
		Config:    DefaultProcessingConfig(),
	}
}
