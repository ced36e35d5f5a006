// Command timetablectl runs the timetabling engine over a problem JSON file
// without the HTTP/store boundary, for scripting and smoke-testing the
// pipeline directly.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"timetable-engine/internal/engine"
)

func main() {
	inFile := "problem.json"
	outFile := ""
	mode := "solve"
	timeout := 30 * time.Second

	flag.StringVar(&inFile, "in", inFile, "input problem JSON file")
	flag.StringVar(&outFile, "out", outFile, "output file (defaults to stdout)")
	flag.StringVar(&mode, "mode", mode, "validate or solve")
	flag.DurationVar(&timeout, "timeout", timeout, "maximum time to spend solving")
	flag.Parse()
	if flag.NArg() != 0 {
		flag.PrintDefaults()
		log.Fatalf("usage: %s [options]", os.Args[0])
	}
	if mode != "validate" && mode != "solve" {
		log.Fatalf("mode must be 'validate' or 'solve', got %q", mode)
	}
	if timeout <= 0 {
		log.Fatalf("timeout must be > 0")
	}

	raw, err := loadProblem(inFile)
	if err != nil {
		log.Fatalf("failed to read %s: %v", inFile, err)
	}

	var result any
	switch mode {
	case "validate":
		report, err := engine.Validate(raw)
		if err != nil {
			log.Fatalf("parse error: %v", err)
		}
		result = map[string]any{
			"ok":       report.OK,
			"errors":   report.Errors,
			"warnings": report.Warnings,
		}
	case "solve":
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		payload, err := engine.SolveAndSerialize(ctx, raw)
		if err != nil {
			log.Fatalf("solve failed: %v", err)
		}
		result = payload
	}

	if err := writeResult(outFile, result); err != nil {
		log.Fatalf("failed to write result: %v", err)
	}
}

func loadProblem(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func writeResult(path string, result any) error {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
