package match

// Weights control how the component scores combine. They are fixed
// configuration loaded at startup, never tuned automatically, so the same
// listing and dwelling always produce the same score.
type Weights struct {
	Bedrooms  float64 `yaml:"bedrooms"`
	UseType   float64 `yaml:"use_type"`
	Homestead float64 `yaml:"homestead"`

	// ContentionPenalty multiplies the score of a dwelling already linked
	// to a different confirmed listing.
	ContentionPenalty float64 `yaml:"contention_penalty"`
}

// DefaultWeights returns the weights used when no scoring file is configured.
func DefaultWeights() Weights {
	return Weights{
		Bedrooms:          0.45,
		UseType:           0.35,
		Homestead:         0.20,
		ContentionPenalty: 0.5,
	}
}
