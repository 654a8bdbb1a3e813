package engine

// Quality levels trade processing effort for output fidelity.
const (
	QualityFast     = "fast"
	QualityBalanced = "balanced"
	QualityBest     = "best"
)

// Options tune the reconstruction pipeline. Zero values are replaced by
// DefaultOptions; callers usually start from DefaultOptions and override
// selectively.
type Options struct {
	// FeatherRadius is the fade band width in pixels outside the region.
	FeatherRadius int `json:"featherRadius" yaml:"feather_radius"`

	// SamplingRadius bounds how far the directional patch walks reach.
	SamplingRadius int `json:"samplingRadius" yaml:"sampling_radius"`

	// TextureAnalysisDepth scales the context window used by texture
	// synthesis. Higher depth reads more surroundings.
	TextureAnalysisDepth int `json:"textureAnalysisDepth" yaml:"texture_analysis_depth"`

	// NoiseMatching blends synthesized grain into the reconstruction so it
	// matches the surrounding noise character.
	NoiseMatching bool `json:"noiseMatching" yaml:"noise_matching"`

	// EdgePreservation switches resampling to the edge-directed kernel.
	EdgePreservation bool `json:"edgePreservation" yaml:"edge_preservation"`

	// QualityLevel is one of fast, balanced or best.
	QualityLevel string `json:"qualityLevel" yaml:"quality_level"`
}

// DefaultOptions returns the baseline tuning.
func DefaultOptions() *Options {
	return &Options{
		FeatherRadius:        20,
		SamplingRadius:       50,
		TextureAnalysisDepth: 2,
		QualityLevel:         QualityBalanced,
	}
}

// normalized fills zero fields from the defaults and returns a copy, so
// the caller's struct is never mutated.
func (o *Options) normalized() *Options {
	out := *DefaultOptions()
	if o == nil {
		return &out
	}
	out = *o
	def := DefaultOptions()
	if out.FeatherRadius <= 0 {
		out.FeatherRadius = def.FeatherRadius
	}
	if out.SamplingRadius <= 0 {
		out.SamplingRadius = def.SamplingRadius
	}
	if out.TextureAnalysisDepth <= 0 {
		out.TextureAnalysisDepth = def.TextureAnalysisDepth
	}
	switch out.QualityLevel {
	case QualityFast, QualityBalanced, QualityBest:
	default:
		out.QualityLevel = def.QualityLevel
	}
	return &out
}

// adaptTo retunes a copy of the options to the analyzed surroundings:
// complex texture widens the sampling reach and analysis depth, strong
// edges force edge preservation with a tight feather so structure lines
// stay crisp, and heavy color variation turns on noise matching.
func (o *Options) adaptTo(a *ContextAnalysis) *Options {
	out := *o
	if a.TextureComplexity > 0.7 {
		if out.SamplingRadius < 60 {
			out.SamplingRadius = 60
		}
		if out.TextureAnalysisDepth < 3 {
			out.TextureAnalysisDepth = 3
		}
	}
	if a.EdgeStrength > 0.6 {
		out.EdgePreservation = true
		if out.FeatherRadius > 15 {
			out.FeatherRadius = 15
		}
	}
	if a.ColorVariation > 0.8 {
		out.NoiseMatching = true
	}
	return &out
}
