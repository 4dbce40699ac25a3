// Package pipeline runs an ordered sequence of render passes on a
// glstate.Context.
//
// Each pass selects its program, binds its textures through the bind cache
// and issues one draw. Passes run strictly in order. The first failing pass
// stops the run with a *PassError naming its index; passes that already ran
// keep their effects, and nothing is retried.
//
//	exec := pipeline.New(ctx)
//	err := exec.Run([]pipeline.Pass{
//		{Label: "blur-h", Program: blurH, Textures: []pipeline.TextureBinding{{Sampler: "src", Texture: scene}}, Draw: quad},
//		{Label: "blur-v", Program: blurV, Textures: []pipeline.TextureBinding{{Sampler: "src", Texture: tmp}}, Draw: quad},
//	})
//	var passErr *pipeline.PassError
//	if errors.As(err, &passErr) {
//		log.Printf("pass %d failed: %v", passErr.Index, passErr.Cause)
//	}
package pipeline
