package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jobmonitor/backend/internal/infrastructure/histfile"
	"github.com/spf13/pflag"
)

func main() {
	output := pflag.StringP("output", "o", "web/files/histograms.yaml", "file to write")
	bins := pflag.Int("bins", 100, "bins per histogram")
	entries := pflag.Int("entries", 10000, "entries per histogram")
	seed := pflag.Int64("seed", time.Now().UnixNano(), "random seed")
	pflag.Parse()

	if err := os.MkdirAll(filepath.Dir(*output), 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	f := histfile.Generate(*seed, *bins, *entries)
	if err := histfile.Write(*output, f); err != nil {
		log.Fatalf("Failed to write histograms: %v", err)
	}

	fmt.Printf("Wrote %d histograms to %s\n", len(f.Objects), *output)
	for _, obj := range f.Objects {
		fmt.Printf("  %s: %s [%g, %g]\n", obj.Name, obj.Title, obj.XAxis.Low, obj.XAxis.High)
	}
}
