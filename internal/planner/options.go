package planner

import (
	"time"

	"github.com/myrjola/wellplan/internal/ptr"
)

const (
	// DefaultRecoverySleepHours is the sleep below which the wellness evaluator asks for recovery. The value follows
	// the "low sleep" rule of the earliest orchestrator and should be confirmed with the product owner.
	DefaultRecoverySleepHours = 5.0
	// DefaultRecentWindow is how many of the newest log entries count as recent history.
	DefaultRecentWindow = 14
	// DefaultGenerationTimeout bounds the single text generation attempt per decision.
	DefaultGenerationTimeout = 8 * time.Second
	// DefaultMaxTokens caps the generated recommendation length.
	DefaultMaxTokens = 300
	// DefaultTemperature is the sampling temperature for generated recommendations.
	DefaultTemperature = 0.7
)

// Options tunes the planner. Zero or nil fields take the defaults above. RecoverySleepHours and Temperature are
// pointers because 0 is a meaningful setting for both: a stress-only wellness rule and deterministic sampling.
type Options struct {
	RecoverySleepHours *float64
	RecentWindow       int
	GenerationTimeout  time.Duration
	MaxTokens          int
	Temperature        *float64
	// DisableGeneratedText skips the text generator even when one is configured.
	DisableGeneratedText bool
}

func (o Options) withDefaults() Options {
	if o.RecoverySleepHours == nil || *o.RecoverySleepHours < 0 {
		o.RecoverySleepHours = ptr.Ref(DefaultRecoverySleepHours)
	}
	if o.RecentWindow <= 0 {
		o.RecentWindow = DefaultRecentWindow
	}
	if o.GenerationTimeout <= 0 {
		o.GenerationTimeout = DefaultGenerationTimeout
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.Temperature == nil || *o.Temperature < 0 {
		o.Temperature = ptr.Ref(DefaultTemperature)
	}
	return o
}
