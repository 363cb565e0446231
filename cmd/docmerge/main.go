package main

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/lalalabude/go-docmerge/pkg/docmerge"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version":
		fmt.Println("docmerge version " + version)
	case "render":
		if err := runRender(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("docmerge - merge records into document templates")
	fmt.Println("\nUsage: docmerge <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  render <flowed|grid> <template> <record.json> <output>")
	fmt.Println("  version")
}

func runRender(args []string) error {
	if len(args) != 4 {
		usage()
		return fmt.Errorf("render expects 4 arguments, got %d", len(args))
	}
	kind := docmerge.TemplateKind(args[0])

	config := docmerge.ConfigFromEnvironment()
	docmerge.SetLogger(buildLogger(config.LogLevel))

	templateBytes, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}

	recordBytes, err := os.ReadFile(args[2])
	if err != nil {
		return fmt.Errorf("read record: %w", err)
	}
	var record docmerge.Record
	if err := json.Unmarshal(recordBytes, &record); err != nil {
		return fmt.Errorf("parse record: %w", err)
	}

	engine := docmerge.New(docmerge.WithConfig(config))
	result, err := engine.Render(templateBytes, kind, &record, args[1])
	if err != nil {
		return err
	}

	if err := os.WriteFile(args[3], result.Bytes, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	fmt.Printf("wrote %s (%d bytes, %s)\n", args[3], len(result.Bytes), result.MimeType)
	return nil
}

func buildLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		cfg.Level = lvl
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
