package constants

import "time"

// Application constants
const (
	AppName = "docrag"
	// Note: the version is injected at build time via ldflags in main.go
)

// File processing constants
const (
	DefaultFilePermission = 0644
	DefaultDirPermission  = 0755

	DefaultExtractionFile = "final_perfect_extraction.md"
	DefaultCleanedFile    = "cleaned_final_output.md"
	DefaultEnhancedImage  = "enhanced_for_ai.png"
	DefaultIndexPath      = "submarine_index.db"

	// Retry and timeout settings
	DefaultMaxRetries      = 3
	DefaultTimeoutDuration = 30 * time.Minute
	DefaultRetryDelay      = 500 * time.Millisecond
)

// File size limits (in bytes)
const (
	MaxFileSize       = 100 * 1024 * 1024 // 100MB
	WarnFileSizeLimit = 10 * 1024 * 1024  // 10MB
)

// Table restructuring constants
const (
	TableDelimiter         = "|"
	DefaultColumnThreshold = 6
	HullColumnWidth        = 15
	NameColumnWidth        = 25
	HullColumnHeader       = "Hull No."
	NameColumnHeader       = "Name"
)

// Image enhancement constants
const (
	DefaultUpscaleFactor = 3
)

// Chunking constants
const (
	DefaultChunkSize          = 600
	DefaultChunkOverlap       = 60
	DefaultSectionHeaderLevel = 2
	SectionMetadataKey        = "Section"
)

// Retrieval and generation constants
const (
	DefaultChatModel      = "gpt-4o-mini"
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultEmbeddingDims  = 1536
	DefaultREPLTopK       = 8
	DefaultHTTPTopK       = 5
	DefaultServeAddr      = "127.0.0.1:8000"
	DefaultTesseractLang  = "eng"
)

// Worker pool limits
const (
	DefaultMaxConcurrency = 4
	MaxConcurrencyLimit   = 20
)
