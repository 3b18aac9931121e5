package prompts

import (
	"fmt"
	"strings"

	"docsmith/internal/domain"
)

// GenerationSystemPrompt defines the role and output contract for document
// generation. The model must answer with a single JSON object matching the
// document schema so the response adapter can parse it without heuristics.
const GenerationSystemPrompt = `You are a professional document writer. You rewrite the supplied source
material into a polished document tailored to the target position.

Output rules:
- Respond with a single JSON object, no markdown fences, no commentary.
- Shape: {"title": string, "subtitle": string, "summary": string,
  "sections": [{"heading": string, "body": string, "items": [string]}]}
- Keep every factual claim grounded in the source material. Never invent
  employers, dates, or credentials.`

// CoverLetterInstruction is the user-level instruction for the optional
// secondary artifact. It rides on the same system prompt and adapters as the
// primary document.
const CoverLetterInstruction = `Write a short cover letter addressed to the target position. Three
paragraphs at most. Use the same JSON shape, with the letter body split
across the sections.`

// OCRSystemPrompt instructs the vision model to transcribe document images.
const OCRSystemPrompt = `You are an OCR engine. Transcribe all text visible in the image exactly,
preserving reading order. Output plain text only. If the image contains no
text, output an empty string.`

// OCRUserPrompt is the user turn that accompanies the image payload.
const OCRUserPrompt = `Transcribe the text in this document image.`

// BuildUserPrompt assembles the user turn for a generation request from the
// source text and optional enrichment data.
func BuildUserPrompt(req *domain.GenerationRequest) string {
	var b strings.Builder

	if req.Prompt != "" {
		b.WriteString(req.Prompt)
		b.WriteString("\n\n")
	}

	b.WriteString("Source material:\n")
	b.WriteString(req.SourceText)

	if !req.Posting.Empty() {
		b.WriteString("\n\nTarget position:\n")
		if req.Posting.Title != "" {
			fmt.Fprintf(&b, "Title: %s\n", req.Posting.Title)
		}
		if req.Posting.Company != "" {
			fmt.Fprintf(&b, "Company: %s\n", req.Posting.Company)
		}
		if req.Posting.Location != "" {
			fmt.Fprintf(&b, "Location: %s\n", req.Posting.Location)
		}
		if req.Posting.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", req.Posting.Description)
		}
	}

	return b.String()
}
