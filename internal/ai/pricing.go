package ai

// Pricing is the cost per 1000 input and output tokens for one model.
type Pricing struct {
	InputPerK  float64
	OutputPerK float64
}

// PricingTable is an immutable model-id → pricing lookup with a fallback
// entry for unrecognized models. Construct it once and inject it; nothing
// reads pricing from process-wide state.
type PricingTable struct {
	entries  map[string]Pricing
	fallback Pricing
}

func NewPricingTable(entries map[string]Pricing, fallback Pricing) PricingTable {
	cp := make(map[string]Pricing, len(entries))
	for k, v := range entries {
		cp[k] = v
	}
	return PricingTable{entries: cp, fallback: fallback}
}

// DefaultPricingTable holds rough per-1k-token estimates. These are frozen
// at record time: usage records are never recomputed when pricing changes.
func DefaultPricingTable() PricingTable {
	return NewPricingTable(map[string]Pricing{
		"openai/gpt-3.5-turbo":    {InputPerK: 0.0005, OutputPerK: 0.0015},
		"openai/gpt-4":            {InputPerK: 0.03, OutputPerK: 0.06},
		"google/gemini-pro":       {InputPerK: 0.000125, OutputPerK: 0.000375},
		"anthropic/claude-3-opus": {InputPerK: 0.015, OutputPerK: 0.075},
	}, Pricing{InputPerK: 0.001, OutputPerK: 0.002})
}

func (t PricingTable) Lookup(modelID string) Pricing {
	if p, ok := t.entries[modelID]; ok {
		return p
	}
	return t.fallback
}

type Estimate struct {
	InputTokens  int
	OutputTokens int
	Cost         float64
}

// Estimator derives token counts and a monetary cost estimate from a chat
// turn's input and output text. It cannot fail: unknown models use the
// table's fallback pricing.
type Estimator struct {
	pricing PricingTable
}

func NewEstimator(pricing PricingTable) *Estimator {
	return &Estimator{pricing: pricing}
}

func (e *Estimator) Estimate(promptText, responseText, modelID string) Estimate {
	in := approxTokens(promptText)
	out := approxTokens(responseText)

	p := e.pricing.Lookup(modelID)
	cost := (float64(in)/1000)*p.InputPerK + (float64(out)/1000)*p.OutputPerK

	return Estimate{InputTokens: in, OutputTokens: out, Cost: cost}
}

// approxTokens is a deliberately coarse approximation (~4 chars per token),
// not a tokenizer. Integer division floors.
func approxTokens(s string) int {
	return len(s) / 4
}
