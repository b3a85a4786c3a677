package analysis

const (
	StrategyEdge      = "edge"
	StrategyThreshold = "threshold"
	StrategyCursor    = "cursor"
)

// DetectionConfig holds every tunable of candidate region extraction.
type DetectionConfig struct {
	Strategy string

	CannyLow  float64
	CannyHigh float64
	// BinaryThreshold is the intensity cutoff of the threshold strategy.
	BinaryThreshold float64

	ClickFilter     RegionFilter
	TextBlockFilter RegionFilter

	CursorTemplatePath string
	CursorThreshold    float64
}

func DefaultDetectionConfig() DetectionConfig {
	return DetectionConfig{
		Strategy:        StrategyEdge,
		CannyLow:        80,
		CannyHigh:       160,
		BinaryThreshold: 150,
		ClickFilter:     ClickRegionFilter(),
		TextBlockFilter: TextBlockFilter(),
		CursorThreshold: 0.70,
	}
}
