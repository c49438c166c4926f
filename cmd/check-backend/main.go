// Command check-backend probes the external services the gateway depends on:
// the conversion service, the validation service and, when the embedded
// extractor is configured, the OpenAI API.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/subosito/gotenv"

	"xrechnung-gateway/internal/config"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	timeout := flag.Duration("timeout", 15*time.Second, "Probe timeout")
	flag.Parse()

	_ = gotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Backend Connectivity Check ===")
	fmt.Printf("  Conversion service: %s\n", cfg.Services.ConversionURL)
	fmt.Printf("  Validation service: %s\n", cfg.Services.ValidationURL)
	if cfg.Services.ExtractionURL != "" {
		fmt.Printf("  Extraction service: %s\n", cfg.Services.ExtractionURL)
	} else {
		fmt.Printf("  Extraction:         embedded (%s)\n", cfg.OpenAI.Model)
	}
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	failed := false
	failed = !probeHTTP(ctx, "conversion", cfg.Services.ConversionURL) || failed
	failed = !probeHTTP(ctx, "validation", cfg.Services.ValidationURL) || failed

	if cfg.Services.ExtractionURL != "" {
		failed = !probeHTTP(ctx, "extraction", cfg.Services.ExtractionURL) || failed
	} else {
		failed = !probeOpenAI(ctx, cfg.OpenAI.APIKey) || failed
	}

	fmt.Println()
	if failed {
		fmt.Println("✗ Some backends are unreachable")
		os.Exit(1)
	}
	fmt.Println("✓ All backends reachable")
}

// probeHTTP checks that the endpoint answers at all. Any HTTP status counts
// as reachable; only transport errors fail the probe.
func probeHTTP(ctx context.Context, name, endpoint string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		fmt.Printf("✗ %s: invalid endpoint: %v\n", name, err)
		return false
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("✗ %s: %v\n", name, err)
		return false
	}
	defer resp.Body.Close()

	fmt.Printf("✓ %s: HTTP %d\n", name, resp.StatusCode)
	return true
}

func probeOpenAI(ctx context.Context, apiKey string) bool {
	client := openai.NewClient(apiKey)
	if _, err := client.ListModels(ctx); err != nil {
		fmt.Printf("✗ openai: %v\n", err)
		return false
	}
	fmt.Println("✓ openai: authenticated")
	return true
}
