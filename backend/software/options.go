package software

// DefaultMaxTextureUnits matches the minimum combined texture image unit
// count guaranteed by OpenGL 3.3.
const DefaultMaxTextureUnits = 16

// Option configures a Device.
type Option func(*options)

type options struct {
	maxUnits     int
	validateWGSL bool
}

func defaultOptions() options {
	return options{maxUnits: DefaultMaxTextureUnits}
}

// WithMaxTextureUnits sets the number of texture units. Negative values are
// treated as zero.
func WithMaxTextureUnits(n int) Option {
	return func(o *options) {
		if n < 0 {
			n = 0
		}
		o.maxUnits = n
	}
}

// WithWGSLValidation makes CompileStage parse sources as WGSL with naga.
func WithWGSLValidation() Option {
	return func(o *options) {
		o.validateWGSL = true
	}
}
