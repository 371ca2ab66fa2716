package result

// Costs drives the cost-savings estimate in the executive summary.
type Costs struct {
	Manual    float64 `mapstructure:"manual"`
	Automated float64 `mapstructure:"automated"`
}

// Savings is the per-case saving of automated over manual review.
func (c Costs) Savings() float64 {
	return c.Manual - c.Automated
}

// InsightTiers are the risk boundaries for the actionable insights.
type InsightTiers struct {
	HighRisk   float64 `mapstructure:"high_risk"`
	MediumRisk float64 `mapstructure:"medium_risk"`
}

type Config struct {
	Costs    Costs        `mapstructure:"costs"`
	Insights InsightTiers `mapstructure:"insights"`
}

func DefaultConfig() Config {
	return Config{
		Costs:    Costs{Manual: 25.00, Automated: 0.50},
		Insights: InsightTiers{HighRisk: 60, MediumRisk: 40},
	}
}
