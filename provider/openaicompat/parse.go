package openaicompat

import (
	quire "github.com/nevindra/quire"
)

// ParseResponse converts an OpenAI-format ChatResponse to the pipeline
// response type. It extracts content and usage from choices[0].
func ParseResponse(resp ChatResponse) (quire.ChatResponse, error) {
	out := quire.ChatResponse{Model: resp.Model}

	if len(resp.Choices) == 0 {
		return out, nil
	}

	if msg := resp.Choices[0].Message; msg != nil {
		out.Content = msg.Content
	}

	if resp.Usage != nil {
		out.Usage = quire.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		}
	}

	return out, nil
}
