package domain

// ProviderSpec describes an interchangeable generation backend. Specs are
// loaded once at process start and never mutated during request handling;
// the executor honors Priority ordering exactly (lower is tried first).
type ProviderSpec struct {
	ID              string
	Priority        int
	Model           string
	CostPerMTokIn   float64 // USD per million input tokens
	CostPerMTokOut  float64 // USD per million output tokens
	MaxOutputTokens int
}

// EstimateCost returns an approximate USD cost for the given token counts.
// The estimate is advisory only and never billed.
func (s ProviderSpec) EstimateCost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1e6*s.CostPerMTokIn + float64(outputTokens)/1e6*s.CostPerMTokOut
}

// EstimateTokens approximates a token count from text length. Four bytes per
// token is the usual rough figure for latin-script prose.
func EstimateTokens(text string) int {
	n := len(text) / 4
	if n == 0 && len(text) > 0 {
		n = 1
	}
	return n
}

// GenerationRequest is the provider-agnostic generation payload.
type GenerationRequest struct {
	Prompt      string   // generation instruction
	SourceText  string   // extracted source document text
	Posting     *Posting // optional enrichment data, nil when unavailable
	MaxTokens   int
	Temperature float64
}

// GenerationResult is the normalized output of a successful provider attempt.
// It is created once per attempt, handed to rendering, and never persisted
// beyond the job's lifetime except through result artifact keys.
type GenerationResult struct {
	Text         string
	Structured   map[string]interface{} // parsed document structure, may be nil
	ProviderID   string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Degraded     bool
}

// Posting holds structured data scraped from an external job posting.
type Posting struct {
	URL         string            `json:"url"`
	Title       string            `json:"title,omitempty"`
	Company     string            `json:"company,omitempty"`
	Location    string            `json:"location,omitempty"`
	Description string            `json:"description,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
}

// Empty reports whether the posting carries no usable data.
func (p *Posting) Empty() bool {
	return p == nil || (p.Title == "" && p.Company == "" && p.Description == "" && len(p.Fields) == 0)
}
