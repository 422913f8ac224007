package pricing

// Config holds the thresholds used while extrapolating prices.
type Config struct {
	// MinSampleSize is the smallest group a learned adjustment may come from.
	MinSampleSize int
	// LowConfidenceThreshold triggers a low-confidence warning below it.
	LowConfidenceThreshold float64
	// DefaultOPRate applies when neither a learned nor a company O&P rate exists.
	DefaultOPRate float64
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		MinSampleSize:          3,
		LowConfidenceThreshold: 0.5,
		DefaultOPRate:          0.20,
	}
}
