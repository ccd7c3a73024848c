package forecast

// Params configures the seasonal model's search and refit behavior.
type Params struct {
	// StartP and StartQ are the initial AR/MA order guesses for the
	// trend component's stepwise search.
	StartP int
	StartQ int
	// MaxP and MaxQ bound the stepwise search.
	MaxP int
	MaxQ int
	// Seasonality is the number of coarse buckets per seasonal cycle (m).
	Seasonality int
	// Seasonal enables the seasonal decomposition; false fits trend only.
	Seasonal bool
	// RefitThreshold is the number of newly observed buckets that
	// accumulate before a background refit is scheduled (2m+1 per the
	// default below).
	RefitThreshold int
}

// DefaultParams returns the engine's default search configuration for a
// seasonal period of m buckets, with the refit threshold pinned at 2m+1
// observations.
func DefaultParams(m int) Params {
	return Params{
		StartP:         1,
		StartQ:         1,
		MaxP:           5,
		MaxQ:           5,
		Seasonality:    m,
		Seasonal:       true,
		RefitThreshold: 2*m + 1,
	}
}
