//go:build !nogpu

package native

import "github.com/gogpu/gputypes"

// Default render target settings.
const (
	DefaultTargetWidth  = 256
	DefaultTargetHeight = 256
	DefaultTargetFormat = gputypes.TextureFormatBGRA8Unorm
)

// Option configures a Device.
type Option func(*options)

type options struct {
	maxUnits int
	width    uint32
	height   uint32
	format   gputypes.TextureFormat
}

func defaultOptions() options {
	return options{
		maxUnits: int(gputypes.DefaultLimits().MaxSampledTexturesPerShaderStage),
		width:    DefaultTargetWidth,
		height:   DefaultTargetHeight,
		format:   DefaultTargetFormat,
	}
}

// WithMaxTextureUnits sets the number of emulated texture units. The value
// is clamped to [0, MaxSampledTexturesPerShaderStage].
func WithMaxTextureUnits(n int) Option {
	return func(o *options) {
		limit := int(gputypes.DefaultLimits().MaxSampledTexturesPerShaderStage)
		o.maxUnits = max(0, min(n, limit))
	}
}

// WithTargetSize sets the size of the offscreen render target draws are
// recorded into. Zero dimensions keep the default.
func WithTargetSize(width, height uint32) Option {
	return func(o *options) {
		if width > 0 {
			o.width = width
		}
		if height > 0 {
			o.height = height
		}
	}
}

// WithTargetFormat sets the color format of the render target and of every
// render pipeline. TextureFormatUndefined keeps the default.
func WithTargetFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		if f != gputypes.TextureFormatUndefined {
			o.format = f
		}
	}
}
