package types

// MediaType represents the kinds of files the pipeline accepts
type MediaType string

const (
	ImageMediaType    MediaType = "image"
	MarkdownMediaType MediaType = "markdown"
	UnknownMediaType  MediaType = "unknown"
)

// OCRStrategy represents different OCR engines
type OCRStrategy string

const (
	OCRStrategyTesseract OCRStrategy = "tesseract"
	OCRStrategyLLM       OCRStrategy = "llm"
)

// TableShape is the classification of a Markdown table block
type TableShape string

const (
	TableShapeOrganized TableShape = "organized" // column count within threshold, cells cleaned in place
	TableShapeMessy     TableShape = "messy"     // too many columns, restructured into two columns
)

// Stage names a step of the document pipeline
type Stage string

const (
	StageExtract Stage = "extract"
	StageClean   Stage = "clean"
	StageIndex   Stage = "index"
)

// FileInfo contains basic information about a file
type FileInfo struct {
	Path      string    `json:"path"`
	MD5Hash   string    `json:"md5_hash"`
	Extension string    `json:"extension"`
	Size      int64     `json:"size"`
	MediaType MediaType `json:"media_type"`
}

// Document is a unit of text that gets embedded and stored in the index
type Document struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ScoredDocument is a search hit with its cosine similarity to the query
type ScoredDocument struct {
	Document
	Score float64 `json:"score"`
}
