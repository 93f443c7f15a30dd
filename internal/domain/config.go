package domain

// Backend identifies the server-side processing engine for a submission.
type Backend string

const (
	BackendAuto            Backend = "auto"
	BackendPipeline        Backend = "pipeline"
	BackendPaddleOCRVL     Backend = "paddleocr-vl"
	BackendPaddleOCRVLVLLM Backend = "paddleocr-vl-vllm"
	BackendSenseVoice      Backend = "sensevoice"
	BackendVideo           Backend = "video"
	BackendFasta           Backend = "fasta"
	BackendGenbank         Backend = "genbank"
	BackendMarkItDown      Backend = "markitdown"
)

// Language is the document language hint passed to the parsing engine.
type Language string

const (
	LanguageAuto     Language = "auto"
	LanguageChinese  Language = "ch"
	LanguageEnglish  Language = "en"
	LanguageKorean   Language = "korean"
	LanguageJapanese Language = "japan"
)

// Method selects between text-layer extraction and full OCR.
type Method string

const (
	MethodAuto Method = "auto"
	MethodText Method = "txt"
	MethodOCR  Method = "ocr"
)

// LayoutShapeMode controls the detection box geometry of the OCR engine.
type LayoutShapeMode string

const (
	LayoutShapeAuto LayoutShapeMode = "auto"
	LayoutShapeRect LayoutShapeMode = "rect"
	LayoutShapePoly LayoutShapeMode = "poly"
)

// ProcessingConfig is the full set of processing options sent with every
// submission. All fields are always transmitted; the server ignores fields
// that do not apply to the chosen backend.
type ProcessingConfig struct {
	Backend  Backend  `json:"backend"`
	Language Language `json:"lang"`
	Method   Method   `json:"method"`
	Priority int      `json:"priority"`

	FormulaEnable bool `json:"formulaEnable"`
	TableEnable   bool `json:"tableEnable"`

	// Video processing options.
	KeepAudio          bool   `json:"keepAudio"`
	EnableKeyframeOCR  bool   `json:"enableKeyframeOcr"`
	KeyframeOCRBackend string `json:"keyframeOcrBackend"`
	KeepKeyframes      bool   `json:"keepKeyframes"`

	// Audio processing options.
	EnableSpeakerDiarization bool `json:"enableSpeakerDiarization"`

	// Watermark removal. Threshold and dilation have no UI surface and keep
	// their defaults until a future settings screen exposes them.
	RemoveWatermark        bool    `json:"removeWatermark"`
	WatermarkConfThreshold float64 `json:"watermarkConfThreshold"`
	WatermarkDilation      int     `json:"watermarkDilation"`

	// PaddleOCR-VL options.
	UseDocOrientationClassify bool            `json:"useDocOrientationClassify"`
	UseDocUnwarping           bool            `json:"useDocUnwarping"`
	UseSealRecognition        bool            `json:"useSealRecognition"`
	UseChartRecognition       bool            `json:"useChartRecognition"`
	UseOCRForImageBlock       bool            `json:"useOcrForImageBlock"`
	MergeTables               bool            `json:"mergeTables"`
	RelevelTitles             bool            `json:"relevelTitles"`
	LayoutShapeMode           LayoutShapeMode `json:"layoutShapeMode"`
}

// LanguageFor returns the language a backend dictates. The pipeline engine
// cannot auto-detect and is fixed to Chinese; sequence formats are not
// natural-language documents and default to English.
func LanguageFor(backend Backend) Language {
	switch backend {
	case BackendPipeline:
		return LanguageChinese
	case BackendFasta, BackendGenbank:
		return LanguageEnglish
	default:
		return LanguageAuto
	}
}

// SetBackend switches the backend and recomputes the derived language field,
// overwriting any prior user choice. No other field is touched. Applying the
// same backend twice yields the same config.
func (c *ProcessingConfig) SetBackend(backend Backend) {
	c.Backend = backend
	c.Language = LanguageFor(backend)
}
