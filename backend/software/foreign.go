package software

import "github.com/gogpu/glstate/device"

// Foreign changes device bindings behind glstate's back. Calls made through
// it are recorded with Call.Foreign set.
type Foreign struct {
	d *Device
}

// Foreign returns a handle for simulating an external renderer sharing the
// device.
func (d *Device) Foreign() Foreign {
	return Foreign{d: d}
}

// BindTextureUnit binds tex to unit.
func (f Foreign) BindTextureUnit(unit device.TextureUnit, tex device.TextureID) {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	f.d.bind(unit, tex, true)
}

// UseProgram makes id current.
func (f Foreign) UseProgram(id device.ProgramID) {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	f.d.use(id, true)
}
