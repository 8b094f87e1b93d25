package quire

// --- Domain types (database records) ---

// Document is one ingested source document after parsing and detection.
type Document struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	MediaType string    `json:"media_type"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum"` // hex SHA-256 of the raw upload
	PageCount int       `json:"page_count"`
	Text      string    `json:"text"`
	Language  Language  `json:"language"`
	HasTables bool      `json:"has_tables"`
	HasImages bool      `json:"has_images"`
	Structure Structure `json:"structure"`
	CreatedAt int64     `json:"created_at"`
}

// Language is a detected document language.
type Language struct {
	Code       string  `json:"code"` // ISO 639-1, "unknown" when undetectable
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Structure summarizes the markdown structure of extracted text.
type Structure struct {
	Headings   int `json:"headings"`
	Tables     int `json:"tables"`
	Images     int `json:"images"`
	Links      int `json:"links"`
	CodeBlocks int `json:"code_blocks"`
	Lists      int `json:"lists"`
}

// AssetKind distinguishes how an asset was produced.
type AssetKind string

const (
	// AssetEmbedded is an image pulled out of the source file.
	AssetEmbedded AssetKind = "embedded"
	// AssetRender is a rasterized page image.
	AssetRender AssetKind = "render"
)

// Asset is one binary artifact derived from a document.
type Asset struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Kind       AssetKind `json:"kind"`
	Name       string    `json:"name"`
	Page       int       `json:"page"`
	MediaType  string    `json:"media_type"`
	Data       []byte    `json:"-"`
	CreatedAt  int64     `json:"created_at"`
}

// Transform is one LLM rewrite of a document's text.
type Transform struct {
	ID          string `json:"id"`
	DocumentID  string `json:"document_id"`
	Format      string `json:"format"`
	Instruction string `json:"instruction,omitempty"`
	Model       string `json:"model"`
	Output      string `json:"output"`
	Usage       Usage  `json:"usage"`
	CreatedAt   int64  `json:"created_at"`
}

// --- LLM protocol types ---

type ChatMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// GenerationParams are optional per-request sampling overrides.
// Nil fields fall back to provider defaults.
type GenerationParams struct {
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
}

type ChatRequest struct {
	Messages         []ChatMessage     `json:"messages"`
	GenerationParams *GenerationParams `json:"generation_params,omitempty"`
	// JSONOutput asks the provider for a JSON object response where the
	// backend supports it (OpenAI response_format, Gemini response MIME).
	JSONOutput bool `json:"json_output,omitempty"`
}

type ChatResponse struct {
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
	Usage   Usage  `json:"usage"`
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ModelInfo describes one model visible on a provider endpoint.
type ModelInfo struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by,omitempty"`
	Created int64  `json:"created,omitempty"`
}

// --- ChatMessage constructors ---

func UserMessage(text string) ChatMessage {
	return ChatMessage{Role: "user", Content: text}
}

func SystemMessage(text string) ChatMessage {
	return ChatMessage{Role: "system", Content: text}
}

func AssistantMessage(text string) ChatMessage {
	return ChatMessage{Role: "assistant", Content: text}
}
