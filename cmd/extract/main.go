// Command extract runs the extraction chain over note files on disk and
// prints one JSON result per file. Useful for spot-checking extraction
// quality without a running server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"dmeflow/internal/config"
	"dmeflow/internal/domain"
	"dmeflow/internal/extraction"
	"dmeflow/internal/llm"
	_ "dmeflow/internal/llm/providers"
	"dmeflow/internal/validator"
)

func main() {
	mode := flag.String("mode", "", "extraction mode override: deterministic, llm, or agentic")
	validate := flag.Bool("validate", false, "run validation on each result")
	timeout := flag.Duration("timeout", 2*time.Minute, "per-note timeout")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: extract [-mode MODE] [-validate] FILE...")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *mode != "" {
		cfg.Extraction.Mode = *mode
	}
	cfg.Extraction.RequireValidation = *validate

	llmClient, err := llm.NewClientFromConfig(&cfg.LLM)
	if err != nil {
		log.Fatalf("failed to initialize model client: %v", err)
	}
	orchestrator := extraction.NewOrchestrator(cfg.Extraction, llmClient, validator.NewEngine())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	exitCode := 0
	for _, path := range flag.Args() {
		if err := extractFile(orchestrator, enc, path, *timeout, *validate); err != nil {
			log.Printf("extract: %s: %v", path, err)
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func extractFile(orchestrator *extraction.Orchestrator, enc *json.Encoder, path string, timeout time.Duration, validate bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result, err := orchestrator.Extract(ctx, string(content), domain.ExtractionContext{
		SourceID:          filepath.Base(path),
		DocumentType:      "physician_note",
		RequireValidation: validate,
	})
	if err != nil {
		return err
	}

	return enc.Encode(map[string]interface{}{
		"file":       filepath.Base(path),
		"order":      result.Order,
		"method":     result.Method,
		"confidence": result.Confidence,
		"validation": result.Validation,
	})
}
