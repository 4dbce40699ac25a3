package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/gogpu/glstate/device"
	"github.com/gogpu/glstate/shader"
)

// Scenario is a replay script decoded from TOML.
type Scenario struct {
	// Units caps the texture units glstate may use. Zero keeps the device
	// limit.
	Units int `toml:"units"`

	// Reserved is the number of low units left to the application.
	Reserved int `toml:"reserved"`

	// Backend names a registered backend. Empty selects the default.
	Backend string `toml:"backend"`

	// CacheSize is the program cache capacity. Zero sizes it to the number
	// of programs.
	CacheSize int `toml:"cache_size"`

	Textures []TextureSpec `toml:"texture"`
	Programs []ProgramSpec `toml:"program"`
	Passes   []PassSpec    `toml:"pass"`
}

// TextureSpec declares a texture created before the replay starts.
type TextureSpec struct {
	Name   string `toml:"name"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// ProgramSpec declares a program built from its stages.
type ProgramSpec struct {
	Name   string      `toml:"name"`
	Stages []StageSpec `toml:"stage"`
}

// StageSpec is one shader stage of a program.
type StageSpec struct {
	Kind   string `toml:"kind"`
	Source string `toml:"source"`
}

// PassSpec is one draw pass.
type PassSpec struct {
	Label       string           `toml:"label"`
	Program     string           `toml:"program"`
	Textures    []PassTextureRef `toml:"textures"`
	Vertices    int              `toml:"vertices"`
	Instances   int              `toml:"instances"`
	Primitive   string           `toml:"primitive"`
	ResetBefore bool             `toml:"reset_before"`
}

// PassTextureRef binds a declared texture to a sampler uniform.
type PassTextureRef struct {
	Sampler string `toml:"sampler"`
	Texture string `toml:"texture"`
}

var errInvalidScenario = errors.New("invalid scenario")

var primitives = map[string]device.Primitive{
	"":               device.PrimitiveTriangles,
	"triangles":      device.PrimitiveTriangles,
	"triangle-strip": device.PrimitiveTriangleStrip,
	"lines":          device.PrimitiveLines,
	"points":         device.PrimitivePoints,
}

// loadScenario decodes and validates a scenario file.
func loadScenario(path string) (*Scenario, error) {
	var sc Scenario
	md, err := toml.DecodeFile(path, &sc)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return finishDecode(&sc, md)
}

// readScenario decodes and validates a scenario from r.
func readScenario(r io.Reader) (*Scenario, error) {
	var sc Scenario
	md, err := toml.NewDecoder(r).Decode(&sc)
	if err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	return finishDecode(&sc, md)
}

func finishDecode(sc *Scenario, md toml.MetaData) (*Scenario, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: unknown keys %s", errInvalidScenario, strings.Join(keys, ", "))
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

func (sc *Scenario) validate() error {
	if sc.Units < 0 || sc.Reserved < 0 || sc.CacheSize < 0 {
		return fmt.Errorf("%w: units, reserved and cache_size must not be negative", errInvalidScenario)
	}

	textures := make(map[string]bool, len(sc.Textures))
	for _, t := range sc.Textures {
		if t.Name == "" {
			return fmt.Errorf("%w: texture without a name", errInvalidScenario)
		}
		if textures[t.Name] {
			return fmt.Errorf("%w: texture %q declared twice", errInvalidScenario, t.Name)
		}
		textures[t.Name] = true
	}

	programs := make(map[string]bool, len(sc.Programs))
	for _, p := range sc.Programs {
		if p.Name == "" {
			return fmt.Errorf("%w: program without a name", errInvalidScenario)
		}
		if programs[p.Name] {
			return fmt.Errorf("%w: program %q declared twice", errInvalidScenario, p.Name)
		}
		if _, err := p.sources(); err != nil {
			return fmt.Errorf("%w: program %q: %w", errInvalidScenario, p.Name, err)
		}
		programs[p.Name] = true
	}

	for i, p := range sc.Passes {
		if !programs[p.Program] {
			return fmt.Errorf("%w: pass %d references unknown program %q", errInvalidScenario, i, p.Program)
		}
		if _, ok := primitives[p.Primitive]; !ok {
			return fmt.Errorf("%w: pass %d has unknown primitive %q", errInvalidScenario, i, p.Primitive)
		}
		for _, ref := range p.Textures {
			if !textures[ref.Texture] {
				return fmt.Errorf("%w: pass %d references unknown texture %q", errInvalidScenario, i, ref.Texture)
			}
		}
	}
	return nil
}

// sources converts the stage list to shader sources.
func (p ProgramSpec) sources() ([]shader.Source, error) {
	if len(p.Stages) == 0 {
		return nil, errors.New("no stages")
	}
	out := make([]shader.Source, len(p.Stages))
	for i, s := range p.Stages {
		kind, err := device.ParseStageKind(s.Kind)
		if err != nil {
			return nil, err
		}
		out[i] = shader.Source{Kind: kind, Code: s.Source}
	}
	return out, nil
}

// drawCall builds the draw call of a pass. Sampler bindings are filled in
// by the executor.
func (p PassSpec) drawCall() device.DrawCall {
	return device.DrawCall{
		Primitive: primitives[p.Primitive],
		Count:     p.Vertices,
		Instances: p.Instances,
	}
}
