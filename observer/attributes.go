package observer

import "go.opentelemetry.io/otel/attribute"

// Attribute keys for pipeline and LLM observability spans and metrics.
var (
	AttrLLMModel    = attribute.Key("llm.model")
	AttrLLMProvider = attribute.Key("llm.provider")
	AttrLLMMethod   = attribute.Key("llm.method")

	AttrTokensInput  = attribute.Key("llm.tokens.input")
	AttrTokensOutput = attribute.Key("llm.tokens.output")
	AttrCostUSD      = attribute.Key("llm.cost_usd")

	AttrStreamChunks = attribute.Key("llm.stream_chunks")

	AttrDocumentID       = attribute.Key("document.id")
	AttrDocumentName     = attribute.Key("document.name")
	AttrDocumentPages    = attribute.Key("document.pages")
	AttrDocumentLanguage = attribute.Key("document.language")

	AttrStage           = attribute.Key("pipeline.stage")
	AttrPipelineStatus  = attribute.Key("pipeline.status")
	AttrTransformFormat = attribute.Key("transform.format")
	AttrExportCount     = attribute.Key("export.count")
)
