package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-quill/quill/cmd/quill/internal/config"
	"github.com/go-quill/quill/pkg/runtime"
	"github.com/go-quill/quill/pkg/scope"
)

func init() {
	RegisterCommand(&Command{
		Name:  "bench",
		Short: "Run a synthetic scope workload",
		Long: `Run a synthetic component workload against a runtime tuned by the
resolved configuration: repeated render cycles, each building a child
scope that registers a number of state cells, then dropping it.

Reports allocator and heuristic statistics so the effect of quill.yaml
tuning (allocator strategy, slab size, heuristics) can be inspected.`,
		Usage: "quill bench [--cycles=N] [--cells=N]",
		Run:   runBench,
	})
}

func runBench(args []string) error {
	cycles := 1000
	cells := 64

	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "--cycles="):
			n, err := strconv.Atoi(strings.TrimPrefix(arg, "--cycles="))
			if err != nil || n <= 0 {
				return fmt.Errorf("--cycles requires a positive integer, got %q", arg)
			}
			cycles = n
		case strings.HasPrefix(arg, "--cells="):
			n, err := strconv.Atoi(strings.TrimPrefix(arg, "--cells="))
			if err != nil || n <= 0 {
				return fmt.Errorf("--cells requires a positive integer, got %q", arg)
			}
			cells = n
		default:
			return fmt.Errorf("unknown flag: %s", arg)
		}
	}

	root, err := config.FindProjectRoot()
	if err != nil {
		return err
	}
	cfg, err := config.Resolve(root)
	if err != nil {
		return err
	}

	fmt.Printf("Instance:   %s\n", cfg.AppName)
	fmt.Printf("Allocator:  %s\n", cfg.Strategy)
	fmt.Printf("Heuristics: %v\n", cfg.Heuristics)
	fmt.Printf("Workload:   %d cycles x %d cells\n\n", cycles, cells)

	reg := runtime.NewRegistry()
	id := reg.Create(cfg.Options())
	defer reg.DropRuntime(id)

	tree := scope.New(reg, id, nil)
	defer tree.Drop()
	h := scope.NewHeuristics()

	start := time.Now()
	for i := 0; i < cycles; i++ {
		bytes, owned := benchCycle(tree, h, cells)
		if i == 0 {
			fmt.Printf("First cycle:    %d bytes, %d handles\n", bytes, owned)
		}
	}
	elapsed := time.Since(start)

	fmt.Printf("Elapsed:        %v (%v per cycle)\n", elapsed, elapsed/time.Duration(cycles))
	fmt.Printf("Bytes guess:    %d\n", h.Bytes.Read())
	fmt.Printf("Owned guess:    %d\n", h.Owned.Read())
	return nil
}

// benchCycle simulates one render of a component: build a child scope,
// register cells, mutate them through their handles, and drop the subtree.
func benchCycle(parent *scope.Scope, h *scope.Heuristics, cells int) (bytes, owned int) {
	handles := make([]scope.State[uint64], 0, cells)
	child := scope.Child(parent, h, func(s *scope.Scope) *scope.Scope {
		for i := 0; i < cells; i++ {
			handles = append(handles, scope.UseState(s, uint64(i)))
		}
		return s
	})

	for _, handle := range handles {
		handle.Update(func(v uint64) uint64 { return v + 1 })
	}

	bytes, owned = child.AllocatedBytes(), child.Owned()
	child.Drop()
	return bytes, owned
}
