package bootstrap

import (
	"context"
	"time"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"docparse-desktop/internal/domain"
)

// engineCatalog is the built-in engine list shown when the server cannot be
// queried. Entries flip to available once the live listing confirms them.
var engineCatalog = []domain.EngineOption{
	{
		Name:        domain.BackendAuto,
		DisplayName: "Auto",
		Description: "Pick an engine automatically from the file type.",
		Available:   true,
	},
	{
		Name:             domain.BackendPipeline,
		DisplayName:      "MinerU Pipeline",
		Description:      "PDF and image parsing with formula and table recognition.",
		SupportedFormats: []string{".pdf", ".png", ".jpg", ".jpeg"},
	},
	{
		Name:             domain.BackendPaddleOCRVL,
		DisplayName:      "PaddleOCR-VL",
		Description:      "Vision-language OCR engine.",
		SupportedFormats: []string{".pdf", ".png", ".jpg", ".jpeg"},
	},
	{
		Name:             domain.BackendPaddleOCRVLVLLM,
		DisplayName:      "PaddleOCR-VL (accelerated)",
		Description:      "High-throughput PaddleOCR variant.",
		SupportedFormats: []string{".pdf", ".png", ".jpg", ".jpeg"},
	},
	{
		Name:             domain.BackendSenseVoice,
		DisplayName:      "SenseVoice",
		Description:      "Speech recognition with automatic language detection.",
		SupportedFormats: []string{".wav", ".mp3", ".flac", ".m4a", ".ogg"},
	},
	{
		Name:             domain.BackendVideo,
		DisplayName:      "Video Processing",
		Description:      "Keyframe extraction and audio transcription.",
		SupportedFormats: []string{".mp4", ".avi", ".mkv", ".mov", ".flv", ".wmv"},
	},
	{
		Name:             domain.BackendFasta,
		DisplayName:      "FASTA",
		Description:      "Sequence format conversion.",
		SupportedFormats: []string{".fasta", ".fa"},
	},
	{
		Name:             domain.BackendGenbank,
		DisplayName:      "GenBank",
		Description:      "Sequence format conversion.",
		SupportedFormats: []string{".gb", ".gbk"},
	},
	{
		Name:             domain.BackendMarkItDown,
		DisplayName:      "MarkItDown",
		Description:      "Office document and text file conversion.",
		SupportedFormats: []string{".docx", ".xlsx", ".pptx", ".doc", ".xls", ".ppt", ".html", ".txt", ".csv"},
	},
}

// submitDialogFilter covers every format the built-in engines accept.
var submitDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Documents",
		Pattern:     "*.pdf;*.png;*.jpg;*.jpeg;*.docx;*.xlsx;*.pptx;*.doc;*.xls;*.ppt;*.html;*.txt;*.csv",
	},
	{
		DisplayName: "Audio and video",
		Pattern:     "*.wav;*.mp3;*.flac;*.m4a;*.ogg;*.mp4;*.avi;*.mkv;*.mov;*.flv;*.wmv",
	},
	{
		DisplayName: "Sequence formats",
		Pattern:     "*.fasta;*.fa;*.gb;*.gbk",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// GetEngines returns the engine options for the backend selector. The live
// server listing marks availability; offline the static catalog is returned
// as-is.
func (a *App) GetEngines() []domain.EngineOption {
	engines := make([]domain.EngineOption, len(engineCatalog))
	copy(engines, engineCatalog)

	client := a.currentClient()
	if client == nil {
		return engines
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	live, err := client.Engines(ctx)
	if err != nil {
		a.logger.Debug().Err(err).Msg("engine listing unavailable, using catalog")
		return engines
	}

	markAvailableEngines(engines, live)
	return engines
}

// markAvailableEngines flips catalog entries confirmed by the live listing.
func markAvailableEngines(engines []domain.EngineOption, live []domain.EngineOption) {
	for i := range engines {
		for _, option := range live {
			if engines[i].Name == option.Name {
				engines[i].Available = true
				if len(option.SupportedFormats) > 0 {
					engines[i].SupportedFormats = option.SupportedFormats
				}
				break
			}
		}
	}
}
