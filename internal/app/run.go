// Copyright (C) 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package app is a small CLI launcher: it parses flag.CommandLine, builds
// a context.Context that's cancelled on SIGINT/SIGTERM, runs a task and
// converts its result into a process exit code. It is a deliberately
// trimmed-down descendant of a much larger launcher that also wired up
// analytics, crash reporting and multi-verb dispatch - none of which a
// single-purpose command-line tool needs.
package app

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/vkrunner/core/log"
)

// LogLevel is the minimum severity printed to stderr, settable with -v.
var LogLevel = log.Info

func init() {
	flag.Var(&severityFlag{&LogLevel}, "v", "minimum log severity to print (debug, info, warning, error, fatal)")
}

// severityFlag adapts log.Severity to flag.Value.
type severityFlag struct {
	sev *log.Severity
}

func (f *severityFlag) String() string {
	if f.sev == nil {
		return ""
	}
	return f.sev.String()
}

func (f *severityFlag) Set(s string) error {
	switch s {
	case "debug", "Debug":
		*f.sev = log.Debug
	case "info", "Info":
		*f.sev = log.Info
	case "warning", "Warning":
		*f.sev = log.Warning
	case "error", "Error":
		*f.sev = log.Error
	case "fatal", "Fatal":
		*f.sev = log.Fatal
	default:
		return errUnknownSeverity(s)
	}
	return nil
}

type errUnknownSeverity string

func (e errUnknownSeverity) Error() string { return "unknown log severity: " + string(e) }

// Run parses flag.CommandLine, builds a context cancelled on SIGINT or
// SIGTERM, calls main with it, and exits the process with main's return
// value. main should interpret its return value as a process exit code
// (0 for success).
func Run(main func(ctx context.Context) int) {
	os.Exit(doRun(main))
}

func doRun(main func(ctx context.Context) int) int {
	flag.Parse()

	ctx := log.PutFilter(context.Background(), LogLevel)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	return main(ctx)
}
