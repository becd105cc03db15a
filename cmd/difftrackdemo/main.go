// Command difftrackdemo wires a list dispatcher, a payload mapper, a bounded
// prefix adapter and a plain listener together and prints what the bounded
// window observes for a small scripted edit session.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/veltrix-labs/difftrack"
	"github.com/veltrix-labs/difftrack/internal/config"
	"github.com/veltrix-labs/difftrack/internal/logging"
)

type step struct {
	Edit     string   `json:"edit"`
	Changed  bool     `json:"changed"`
	Diffs    []string `json:"diffs"`
	Snapshot []string `json:"snapshot"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	maxSize := flag.Int("max-size", cfg.BoundedPrefixSize, "Maximum number of visible elements in the bounded window")
	flag.Parse()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}

	//1.- Wire dispatcher -> bounded prefix -> lowercasing mapper -> listener.
	listener := difftrack.NewListListener[string]()
	mapped := difftrack.DataMapper[int](strings.ToLower)(listener)
	bounded := difftrack.NewBoundedPrefix[string](mapped, *maxSize)
	dispatcher := difftrack.NewListDispatcher[string](
		difftrack.WithMaxReentrantDepth(cfg.MaxReentrantDepth),
		difftrack.WithLogger(logger),
	)
	dispatcher.AddListener(bounded)

	//2.- Drive a scripted session that grows to three elements and shrinks
	// back; it overflows the window only when -max-size is below 3.
	edits := []struct {
		label string
		apply func()
	}{
		{"insert(0, AAA)", func() { dispatcher.Insert(0, "AAA") }},
		{"insert(1, BBB)", func() { dispatcher.Insert(1, "BBB") }},
		{"insert(0, CCC)", func() { dispatcher.Insert(0, "CCC") }},
		{"assign(1, DDD)", func() { dispatcher.Assign(1, "DDD") }},
		{"erase(0)", func() { dispatcher.Erase(0) }},
		{"erase(1)", func() { dispatcher.Erase(1) }},
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	for _, edit := range edits {
		dispatcher.Batch(edit.apply)

		//3.- Report each step as JSON so callers can pipe the output elsewhere.
		report := step{Edit: edit.label, Changed: listener.HasChanged()}
		for _, d := range listener.TakePending() {
			report.Diffs = append(report.Diffs, fmt.Sprintf("%s(%d, %v)", d.Kind, d.Index, d.Payload))
		}
		report.Snapshot = append([]string(nil), listener.Snapshot()...)
		if err := encoder.Encode(report); err != nil {
			return err
		}
	}
	return nil
}
