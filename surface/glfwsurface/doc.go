// Package glfwsurface opens a GLFW window with an OpenGL 3.3 core context
// and wires it to a glstate.Context.
//
//	s, err := glfwsurface.New("demo", glfwsurface.DefaultWindowOptions())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer s.Close()
//
//	for !s.ShouldClose() {
//		// record passes with pipeline.New(s.Context())
//		s.SwapBuffers()
//		s.PollEvents()
//	}
//
// New locks the calling goroutine to its OS thread. The surface, its
// context and every object created through them must be used from that
// goroutine only.
//
// Building the window code requires cgo. Build with -tags nogl to exclude
// it; the option and error types stay available.
package glfwsurface
