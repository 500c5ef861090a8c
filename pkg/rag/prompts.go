package rag

import (
	"bytes"
	"text/template"
)

const concisePrompt = `You are a precise technical assistant. Use the provided context to answer the question.

INSTRUCTIONS:
1. Answer the question directly and briefly.
2. Fix OCR errors in your response (e.g., 'willenter' -> 'will enter', 'countermeasuros' -> 'countermeasures', 'Narno' -> 'Name', 'Hulu dao' -> 'Huludao').
3. If the question asks for a count, provide the number and list the names.
4. Do not provide extra summaries or introductory text.
5. Use proper English grammar and spacing.

CONTEXT:
{{.Context}}

QUESTION: {{.Question}}

ANSWER:`

const analystPrompt = `You are a Military Intelligence Systems Analyst. Use the following technical excerpts to answer the question.

STRICT GUIDELINES:
1. Grounding: Answer ONLY using the provided context.
2. Precision: Include exact technical numbers, units (tonnes, MW, km), and dates.
3. Formatting: Use bullet points for lists.
4. Missing Info: If the answer is not in the context, say "Data not found in document."

CONTEXT:
{{.Context}}

QUESTION: {{.Question}}

ANALYST RESPONSE:`

var (
	// ConcisePrompt asks for short answers with OCR mistakes repaired. Used by the REPL.
	ConcisePrompt = template.Must(template.New("concise").Parse(concisePrompt))
	// AnalystPrompt asks for grounded, precise answers. Used by the HTTP endpoint.
	AnalystPrompt = template.Must(template.New("analyst").Parse(analystPrompt))
)

// PromptData is the input of a prompt template
type PromptData struct {
	Context  string
	Question string
}

// Render executes tmpl with data
func Render(tmpl *template.Template, data PromptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
