package glstate

// Option configures a Context during creation.
//
// Example:
//
//	// Use every unit the device reports
//	ctx, err := glstate.New(dev)
//
//	// Leave units 0 and 1 to an embedded renderer, cap the rest at 8
//	ctx, err := glstate.New(dev, glstate.WithReservedUnits(2), glstate.WithMaxTextureUnits(8))
type Option func(*contextOptions)

// contextOptions holds optional configuration for Context creation.
type contextOptions struct {
	maxUnits int // -1: use Device.MaxTextureUnits
	reserved int
}

// defaultOptions returns the default context options.
func defaultOptions() contextOptions {
	return contextOptions{
		maxUnits: -1,
		reserved: 0,
	}
}

// WithMaxTextureUnits caps the number of texture units the Context uses,
// counting reserved units. A cap above the device limit has no effect.
// Zero leaves no unit to assign: every BindTexture fails with
// ErrCapacityExhausted.
func WithMaxTextureUnits(n int) Option {
	return func(o *contextOptions) {
		if n < 0 {
			n = 0
		}
		o.maxUnits = n
	}
}

// WithReservedUnits keeps units [0, n) out of the bind cache. The Context
// never binds to them, so foreign code may own them without forcing a Reset.
func WithReservedUnits(n int) Option {
	return func(o *contextOptions) {
		if n < 0 {
			n = 0
		}
		o.reserved = n
	}
}
