package domain

import "testing"

// TestLanguageForBackendTable verifies the derived language for every backend.
func TestLanguageForBackendTable(t *testing.T) {
	cases := []struct {
		backend Backend
		want    Language
	}{
		{BackendAuto, LanguageAuto},
		{BackendPipeline, LanguageChinese},
		{BackendPaddleOCRVL, LanguageAuto},
		{BackendPaddleOCRVLVLLM, LanguageAuto},
		{BackendSenseVoice, LanguageAuto},
		{BackendVideo, LanguageAuto},
		{BackendFasta, LanguageEnglish},
		{BackendGenbank, LanguageEnglish},
		{BackendMarkItDown, LanguageAuto},
	}

	for _, tc := range cases {
		if got := LanguageFor(tc.backend); got != tc.want {
			t.Fatalf("LanguageFor(%s) = %s, want %s", tc.backend, got, tc.want)
		}
	}
}

// TestSetBackendOverridesManualLanguage checks the rule ignores prior choices.
func TestSetBackendOverridesManualLanguage(t *testing.T) {
	cfg := ProcessingConfig{Backend: BackendAuto, Language: LanguageKorean}

	cfg.SetBackend(BackendPipeline)
	if cfg.Language != LanguageChinese {
		t.Fatalf("language = %s, want %s", cfg.Language, LanguageChinese)
	}

	cfg.Language = LanguageJapanese
	cfg.SetBackend(BackendPipeline)
	if cfg.Language != LanguageChinese {
		t.Fatalf("language after re-applying same backend = %s, want %s", cfg.Language, LanguageChinese)
	}
}

// TestSetBackendIsIdempotent checks applying the rule twice changes nothing.
func TestSetBackendIsIdempotent(t *testing.T) {
	cfg := ProcessingConfig{FormulaEnable: true, Priority: 42}
	cfg.SetBackend(BackendFasta)
	once := cfg

	cfg.SetBackend(BackendFasta)
	if cfg != once {
		t.Fatalf("config = %+v, want %+v", cfg, once)
	}
}

// TestSetBackendTouchesOnlyLanguage checks other fields survive a switch.
func TestSetBackendTouchesOnlyLanguage(t *testing.T) {
	cfg := ProcessingConfig{
		Backend:         BackendVideo,
		Language:        LanguageAuto,
		Method:          MethodOCR,
		Priority:        7,
		KeepAudio:       true,
		RemoveWatermark: true,
		LayoutShapeMode: LayoutShapePoly,
	}

	cfg.SetBackend(BackendPipeline)
	if !cfg.KeepAudio || !cfg.RemoveWatermark {
		t.Fatal("feature toggles must persist across backend switches")
	}
	if cfg.Method != MethodOCR || cfg.Priority != 7 || cfg.LayoutShapeMode != LayoutShapePoly {
		t.Fatalf("unrelated fields changed: %+v", cfg)
	}
}
