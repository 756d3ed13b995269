package tokenizer

// CountResult captures the outcome of counting one text.
type CountResult struct {
	Tokens int
	// Estimated is set when the heuristic produced the count.
	Estimated bool
}

// CountText counts text with counter. A nil counter or a failing one falls back to Estimate;
// the counter's error is returned alongside the fallback count.
func CountText(counter Counter, text string) (CountResult, error) {
	if counter == nil {
		return CountResult{Tokens: Estimate(text), Estimated: true}, nil
	}
	if _, heuristic := counter.(HeuristicCounter); heuristic {
		return CountResult{Tokens: Estimate(text), Estimated: true}, nil
	}
	tokens, err := counter.CountString(text)
	if err != nil {
		return CountResult{Tokens: Estimate(text), Estimated: true}, err
	}
	return CountResult{Tokens: tokens}, nil
}
