package forecast

import "fmt"

const (
	ModelExponential = "exponential"
	ModelLinear      = "linear"
	ModelNoGrowth    = "no_growth"

	DefaultMaxDays = 300
)

// Models lists every supported extrapolation model
var Models = []string{ModelExponential, ModelLinear, ModelNoGrowth}

// Options configures an extrapolation run
type Options struct {
	Model string `json:"model" mapstructure:"model"`

	// MaxDays caps the number of simulated days when the final threshold is out of reach
	MaxDays int `json:"max_days" mapstructure:"max_days"`
}

// NewDefaultOptions returns exponential extrapolation capped at DefaultMaxDays
func NewDefaultOptions() *Options {
	return &Options{
		Model:   ModelExponential,
		MaxDays: DefaultMaxDays,
	}
}

// Validate checks the model name is supported
func (o *Options) Validate() error {
	switch o.Model {
	case ModelExponential, ModelLinear, ModelNoGrowth:
		return nil
	default:
		return fmt.Errorf("%q, %w", o.Model, ErrUnsupportedModel)
	}
}

func (o *Options) maxDays() int {
	if o.MaxDays <= 0 {
		return DefaultMaxDays
	}
	return o.MaxDays
}
