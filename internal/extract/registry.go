package extract

// Default returns the extractors in priority order: board-specific families
// first, the generic fallback last when enabled.
func Default(deps Deps, genericFallback bool) []Extractor {
	extractors := []Extractor{
		NewLinkedIn(deps),
		NewIndeed(deps),
		NewGreenhouse(deps),
		NewLever(deps),
		NewAshby(deps),
		NewWorkday(deps),
	}
	if genericFallback {
		extractors = append(extractors, NewGeneric(deps))
	}
	return extractors
}
