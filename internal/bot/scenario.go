package bot

// Scenario selects a market-regime preset for the bot swarm.
type Scenario string

const (
	ScenarioBull     Scenario = "bull"
	ScenarioBear     Scenario = "bear"
	ScenarioSideways Scenario = "sideways"
	ScenarioVolatile Scenario = "volatile"
	ScenarioCalm     Scenario = "calm"
)

// preset parameterizes bot behavior for one scenario. Bias pushes the trend
// signal, RandomBias re-rolls the bias every tick (volatile regime), and the
// multipliers scale volatility, trend aggressiveness and overall intensity on
// top of the configured values.
type preset struct {
	Bias           float64
	RandomBias     bool
	Volatility     float64
	Aggressiveness float64
	Intensity      float64
}

var presets = map[Scenario]preset{
	ScenarioBull:     {Bias: 0.004, Volatility: 1, Aggressiveness: 1.3, Intensity: 1.2},
	ScenarioBear:     {Bias: -0.004, Volatility: 1, Aggressiveness: 1.3, Intensity: 1.2},
	ScenarioSideways: {Bias: 0, Volatility: 1, Aggressiveness: 1, Intensity: 1},
	ScenarioVolatile: {Bias: 0, RandomBias: true, Volatility: 2.5, Aggressiveness: 1.6, Intensity: 1.5},
	ScenarioCalm:     {Bias: 0, Volatility: 0.4, Aggressiveness: 0.6, Intensity: 0.5},
}

// presetFor falls back to sideways for unknown scenarios.
func presetFor(s Scenario) preset {
	if p, ok := presets[s]; ok {
		return p
	}
	return presets[ScenarioSideways]
}

// ValidScenario reports whether s names a known preset.
func ValidScenario(s Scenario) bool {
	_, ok := presets[s]
	return ok
}
