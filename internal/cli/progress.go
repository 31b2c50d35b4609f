// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/foodvision/datasetprep/pkg/datasetprep"
)

var (
	stepColor = color.New(color.FgCyan).SprintFunc()
	warnColor = color.New(color.FgYellow).SprintFunc()
)

// renderer turns preparation events into terminal output: colored step
// lines, a byte progress bar for the bundle download on a TTY, JSON
// lines with --json, or near-silence with --quiet.
type renderer struct {
	jsonOut bool
	quiet   bool
	isTTY   bool

	mu  sync.Mutex
	bar *pb.ProgressBar
	enc *json.Encoder
}

func newRenderer(ro *RootOpts) *renderer {
	r := &renderer{
		jsonOut: ro.JSONOut,
		quiet:   ro.Quiet,
		isTTY:   term.IsTerminal(int(os.Stdout.Fd())),
	}
	if r.jsonOut {
		r.enc = json.NewEncoder(os.Stdout)
		r.enc.SetEscapeHTML(false)
	}
	return r
}

// DownloadProgress feeds the bundle download bar. Safe to call from the
// client's download goroutine.
func (r *renderer) DownloadProgress(downloaded, total int64) {
	if r.jsonOut || r.quiet || !r.isTTY || total <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar == nil {
		r.bar = pb.Full.Start64(total)
		r.bar.Set(pb.Bytes, true)
	}
	r.bar.SetCurrent(downloaded)
}

// Event renders one preparation step.
func (r *renderer) Event(ev datasetprep.ProgressEvent) {
	r.finishBar()

	if r.jsonOut {
		r.mu.Lock()
		_ = r.enc.Encode(ev)
		r.mu.Unlock()
		return
	}
	if r.quiet {
		return
	}

	switch ev.Event {
	case "download_start":
		fmt.Printf("%s %s\n", stepColor("[download]"), ev.Message)
	case "cache_ready":
		fmt.Printf("%s cache at %s\n", stepColor("[cache]"), ev.Path)
	case "force_remove":
		fmt.Printf("%s removing existing folder %s\n", warnColor("[force]"), ev.Path)
	case "skip":
		fmt.Printf("%s %s\n", warnColor("[skip]"), ev.Message)
	case "search":
		fmt.Printf("%s %s\n", stepColor("[search]"), ev.Message)
	case "found":
		fmt.Printf("%s content pair under %s\n", stepColor("[search]"), ev.Path)
	case "extract":
		fmt.Printf("%s %s\n", stepColor("[extract]"), ev.Path)
	case "copy":
		fmt.Printf("%s -> %s\n", stepColor("[copy]"), ev.Path)
	case "already_at":
		fmt.Printf("%s already at %s\n", stepColor("[copy]"), ev.Path)
	case "verify":
		fmt.Printf("%s %s: %s\n", stepColor("[verify]"), ev.Path, ev.Message)
	}
}

// Summary prints a final human-readable line (suppressed by --json).
func (r *renderer) Summary(line string) {
	r.finishBar()
	if r.jsonOut {
		return
	}
	fmt.Println(line)
}

func (r *renderer) finishBar() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar != nil {
		r.bar.Finish()
		r.bar = nil
	}
}

// Close flushes any open progress bar.
func (r *renderer) Close() {
	r.finishBar()
}
