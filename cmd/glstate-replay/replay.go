package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/gogpu/glstate"
	"github.com/gogpu/glstate/device"
	"github.com/gogpu/glstate/pipeline"
	"github.com/gogpu/glstate/shader"
)

// PassReport is the bind activity of one pass.
type PassReport struct {
	Label string
	Delta glstate.Stats
	Err   error
}

// Report is the outcome of a replay.
type Report struct {
	Backend  string
	Capacity int
	Reserved int
	Passes   []PassReport
	Total    glstate.Stats
	Cache    shader.CacheStats
}

// replay runs sc on dev. Every pass runs even if an earlier one failed; the
// first failure is returned alongside the full report.
func replay(sc *Scenario, dev device.Device) (*Report, error) {
	var opts []glstate.Option
	if sc.Units > 0 {
		opts = append(opts, glstate.WithMaxTextureUnits(sc.Units))
	}
	if sc.Reserved > 0 {
		opts = append(opts, glstate.WithReservedUnits(sc.Reserved))
	}
	ctx, err := glstate.New(dev, opts...)
	if err != nil {
		return nil, err
	}
	defer ctx.Release()

	textures, cleanup, err := createTextures(dev, sc.Textures)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	cacheSize := sc.CacheSize
	if cacheSize == 0 {
		cacheSize = max(len(sc.Programs), 1)
	}
	cache, err := ctx.NewProgramCache(cacheSize)
	if err != nil {
		return nil, err
	}
	defer cache.Purge()

	specs := make(map[string]ProgramSpec, len(sc.Programs))
	for _, p := range sc.Programs {
		specs[p.Name] = p
	}

	report := &Report{Capacity: ctx.Capacity(), Reserved: ctx.ReservedUnits()}
	exec := pipeline.New(ctx)
	var firstErr error

	for i, ps := range sc.Passes {
		if ps.ResetBefore {
			ctx.Reset()
		}
		before := ctx.Stats()

		pass, err := buildPass(cache, specs[ps.Program], ps, textures)
		if err == nil {
			err = exec.Run([]pipeline.Pass{pass})
		}
		var pe *pipeline.PassError
		if errors.As(err, &pe) {
			err = &pipeline.PassError{Index: i, Label: pe.Label, Cause: pe.Cause}
		} else if err != nil {
			err = &pipeline.PassError{Index: i, Label: ps.Label, Cause: err}
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}

		report.Passes = append(report.Passes, PassReport{
			Label: ps.Label,
			Delta: diffStats(ctx.Stats(), before),
			Err:   err,
		})
	}

	report.Total = ctx.Stats()
	report.Cache = cache.Stats()
	return report, firstErr
}

func buildPass(cache *shader.Cache, spec ProgramSpec, ps PassSpec, textures map[string]device.TextureID) (pipeline.Pass, error) {
	sources, err := spec.sources()
	if err != nil {
		return pipeline.Pass{}, err
	}
	prog, err := cache.Program(sources...)
	if err != nil {
		return pipeline.Pass{}, fmt.Errorf("program %q: %w", spec.Name, err)
	}

	pass := pipeline.Pass{
		Label:   ps.Label,
		Program: prog,
		Draw:    ps.drawCall(),
	}
	for _, ref := range ps.Textures {
		pass.Textures = append(pass.Textures, pipeline.TextureBinding{
			Sampler: ref.Sampler,
			Texture: textures[ref.Texture],
		})
	}
	return pass, nil
}

// createTextures allocates every declared texture. The returned cleanup
// destroys them.
func createTextures(dev device.Device, specs []TextureSpec) (map[string]device.TextureID, func(), error) {
	ids := make(map[string]device.TextureID, len(specs))
	if len(specs) == 0 {
		return ids, func() {}, nil
	}
	alloc, ok := dev.(device.TextureAllocator)
	if !ok {
		return nil, nil, errors.New("device cannot create textures")
	}
	cleanup := func() {
		for _, id := range ids {
			alloc.DestroyTexture(id)
		}
	}
	for _, spec := range specs {
		w, h := max(spec.Width, 1), max(spec.Height, 1)
		id, err := alloc.CreateTexture(w, h)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("texture %q: %w", spec.Name, err)
		}
		ids[spec.Name] = id
	}
	return ids, cleanup, nil
}

func diffStats(after, before glstate.Stats) glstate.Stats {
	return glstate.Stats{
		Binds:           after.Binds - before.Binds,
		BindHits:        after.BindHits - before.BindHits,
		Evictions:       after.Evictions - before.Evictions,
		StaleEntries:    after.StaleEntries - before.StaleEntries,
		ProgramSwitches: after.ProgramSwitches - before.ProgramSwitches,
		ProgramHits:     after.ProgramHits - before.ProgramHits,
		Resets:          after.Resets - before.Resets,
	}
}

// print writes the report as an aligned table.
func (r *Report) print(w io.Writer) error {
	fmt.Fprintf(w, "backend: %s  units: %d  reserved: %d\n\n", r.Backend, r.Capacity, r.Reserved)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPASS\tBINDS\tHITS\tEVICTIONS\tSWITCHES\tSTATUS")
	for i, p := range r.Passes {
		status := "ok"
		if p.Err != nil {
			status = p.Err.Error()
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%s\n",
			i, p.Label, p.Delta.Binds, p.Delta.BindHits, p.Delta.Evictions, p.Delta.ProgramSwitches, status)
	}
	fmt.Fprintf(tw, "\ttotal\t%d\t%d\t%d\t%d\t\n",
		r.Total.Binds, r.Total.BindHits, r.Total.Evictions, r.Total.ProgramSwitches)
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nresets: %d  stale entries: %d  program cache: %d hits, %d misses, %d evictions\n",
		r.Total.Resets, r.Total.StaleEntries, r.Cache.Hits, r.Cache.Misses, r.Cache.Evictions)
	return err
}
