// Command glstate-replay runs a TOML render scenario through glstate and
// prints how many device binds and program switches it cost.
//
// Usage:
//
//	glstate-replay [-backend name] [-v] scenario.toml
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/glstate"
	"github.com/gogpu/glstate/backend"
	_ "github.com/gogpu/glstate/backend/native"
	_ "github.com/gogpu/glstate/backend/software"
	"github.com/gogpu/glstate/device"
)

func main() {
	var (
		backendName = flag.String("backend", "", "backend to use (overrides the scenario)")
		verbose     = flag.Bool("v", false, "log cache decisions to stderr")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: glstate-replay [flags] scenario.toml\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if *verbose {
		glstate.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	if err := run(flag.Arg(0), *backendName, os.Stdout); err != nil {
		log.Fatalf("glstate-replay: %v", err)
	}
}

// run loads the scenario at path, replays it and prints the report to w.
func run(path, backendName string, w io.Writer) error {
	sc, err := loadScenario(path)
	if err != nil {
		return err
	}
	if backendName != "" {
		sc.Backend = backendName
	}

	dev, name, err := openDevice(sc.Backend)
	if err != nil {
		return err
	}
	if c, ok := dev.(interface{ Close() }); ok {
		defer c.Close()
	}

	report, replayErr := replay(sc, dev)
	if report == nil {
		return replayErr
	}
	report.Backend = name
	if err := report.print(w); err != nil {
		return err
	}
	return replayErr
}

func openDevice(name string) (device.Device, string, error) {
	if name == "" {
		return backend.Default()
	}
	dev, err := backend.Get(name)
	return dev, name, err
}
