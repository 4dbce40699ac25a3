package software

import (
	"fmt"

	"github.com/gogpu/glstate/device"
)

// CallKind identifies a recorded device call.
type CallKind uint8

// Recorded call kinds.
const (
	CallCompileStage CallKind = iota + 1
	CallLinkProgram
	CallReleaseStage
	CallReleaseProgram
	CallBindTextureUnit
	CallUseProgram
	CallDraw
)

var callKindNames = map[CallKind]string{
	CallCompileStage:    "CompileStage",
	CallLinkProgram:     "LinkProgram",
	CallReleaseStage:    "ReleaseStage",
	CallReleaseProgram:  "ReleaseProgram",
	CallBindTextureUnit: "BindTextureUnit",
	CallUseProgram:      "UseProgram",
	CallDraw:            "Draw",
}

// String returns the device method name.
func (k CallKind) String() string {
	if name, ok := callKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("CallKind(%d)", uint8(k))
}

// Call is one recorded device call. Only the fields relevant to Kind are set.
type Call struct {
	Kind    CallKind
	Unit    device.TextureUnit
	Texture device.TextureID
	Stage   device.StageID
	Program device.ProgramID
	Draw    device.DrawCall

	// Foreign is true for calls made through Device.Foreign.
	Foreign bool
}

// String formats the call for test failure messages.
func (c Call) String() string {
	prefix := ""
	if c.Foreign {
		prefix = "foreign "
	}
	switch c.Kind {
	case CallCompileStage, CallReleaseStage:
		return fmt.Sprintf("%s%s(%d)", prefix, c.Kind, c.Stage)
	case CallLinkProgram, CallReleaseProgram, CallUseProgram:
		return fmt.Sprintf("%s%s(%d)", prefix, c.Kind, c.Program)
	case CallBindTextureUnit:
		return fmt.Sprintf("%s%s(unit=%d, tex=%d)", prefix, c.Kind, c.Unit, c.Texture)
	case CallDraw:
		return fmt.Sprintf("%s%s(count=%d, samplers=%d)", prefix, c.Kind, c.Draw.Count, len(c.Draw.Samplers))
	default:
		return prefix + c.Kind.String()
	}
}
