package shader

import "github.com/gogpu/glstate/device"

// Stage is a compiled shader stage attached to a Linker.
//
// A stage is released exactly once: by Link, which consumes it, by
// Linker.Close, or by an explicit Release when it is dropped before linking.
type Stage struct {
	dev   device.Device
	id    device.StageID
	kind  device.StageKind
	owner *Linker
	taken bool
}

// ID returns the device handle, or InvalidID once the stage is released.
func (s *Stage) ID() device.StageID {
	if s.taken {
		return device.InvalidID
	}
	return s.id
}

// Kind returns the stage kind.
func (s *Stage) Kind() device.StageKind {
	return s.kind
}

// Released reports whether the stage has been linked or released.
func (s *Stage) Released() bool {
	return s.taken
}

// Release destroys the stage if it has not been linked or released yet.
// Calling Release more than once is a no-op.
func (s *Stage) Release() {
	if c, ok := s.take(); ok {
		c.release()
	}
}

// take transfers ownership of the device handle to the caller. It succeeds
// at most once per stage; every later call reports false.
func (s *Stage) take() (stageClaim, bool) {
	if s == nil || s.taken {
		return stageClaim{}, false
	}
	s.taken = true
	if s.owner != nil {
		s.owner.detach(s)
	}
	return stageClaim{dev: s.dev, id: s.id, kind: s.kind}, true
}

// stageClaim is a device stage handle whose release is owed exactly once.
type stageClaim struct {
	dev  device.Device
	id   device.StageID
	kind device.StageKind
}

func (c stageClaim) release() {
	c.dev.ReleaseStage(c.id)
	slogger().Debug("shader: stage released", "stage", uint64(c.id), "kind", c.kind.String())
}

// releaseClaims releases every claimed stage. It is the single point where
// Link gives up stage handles.
func releaseClaims(claims []stageClaim) {
	for _, c := range claims {
		c.release()
	}
}
