package shader

import "github.com/gogpu/glstate/device"

// Program is a linked shader program.
//
// The caller that received the program from Linker.Link owns it and must
// release it exactly once. Release is idempotent.
type Program struct {
	dev      device.Device
	id       device.ProgramID
	kinds    []device.StageKind
	released bool
}

func newProgram(dev device.Device, id device.ProgramID, kinds []device.StageKind) *Program {
	return &Program{dev: dev, id: id, kinds: kinds}
}

// ID returns the device handle, or InvalidID once the program is released.
func (p *Program) ID() device.ProgramID {
	if p == nil || p.released {
		return device.InvalidID
	}
	return p.id
}

// Device returns the device the program was linked on.
func (p *Program) Device() device.Device {
	return p.dev
}

// Kinds returns the stage kinds the program was linked from.
func (p *Program) Kinds() []device.StageKind {
	out := make([]device.StageKind, len(p.kinds))
	copy(out, p.kinds)
	return out
}

// Released reports whether Release has been called.
func (p *Program) Released() bool {
	return p.released
}

// Release destroys the program. Calling Release more than once is a no-op.
//
// Releasing the program that is current on a glstate.Context leaves the
// context's program shadow stale; use Context.DeleteProgram instead.
func (p *Program) Release() {
	if p == nil || p.released {
		return
	}
	p.released = true
	p.dev.ReleaseProgram(p.id)
	slogger().Debug("shader: program released", "program", uint64(p.id))
}
