package cmd

import (
	"fmt"

	"github.com/go-quill/quill/cmd/quill/internal/config"
)

func init() {
	RegisterCommand(&Command{
		Name:  "doctor",
		Short: "Validate configuration",
		Long: `Validate quill.yaml against the host module and print the resolved
configuration: instance name, allocator strategy, slab size, and
heuristic settings.`,
		Usage: "quill doctor",
		Run:   runDoctor,
	})
}

func runDoctor(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("doctor takes no arguments")
	}

	root, err := config.FindProjectRoot()
	if err != nil {
		return err
	}

	cfg, err := config.Resolve(root)
	if err != nil {
		return err
	}

	fmt.Printf("Project:        %s\n", cfg.ModulePath)
	fmt.Printf("Instance name:  %s\n", cfg.AppName)
	fmt.Printf("Allocator:      %s\n", cfg.Strategy)
	if cfg.SlabSize > 0 {
		fmt.Printf("Slab size:      %d bytes\n", cfg.SlabSize)
	} else {
		fmt.Printf("Slab size:      default\n")
	}
	fmt.Printf("Heuristics:     %v\n", cfg.Heuristics)
	if cfg.TableCap > 0 {
		fmt.Printf("Table capacity: %d cells\n", cfg.TableCap)
	}
	fmt.Println()
	fmt.Println("Configuration OK")
	return nil
}
