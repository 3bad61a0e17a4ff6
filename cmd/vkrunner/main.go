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

// Command vkrunner is a thin front-end over the vkrunner library: it
// parses its command line, feeds each script to an Executor and reports
// the aggregate result the way Piglit expects.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/google/vkrunner"
	"github.com/google/vkrunner/internal/app"
	"golang.org/x/term"
)

var (
	imagePath   = flag.String("i", "", "write the final framebuffer of the last script to this PPM file")
	disassemble = flag.Bool("d", false, "print shader disassembly for every script")
	tokenFlags  tokenReplacementList
)

func init() {
	flag.Var(&tokenFlags, "D", "replace TOK with REPL in every script (may be repeated): -D TOK=REPL")
}

// tokenReplacementList collects repeated -D TOK=REPL flags in the order
// they were given.
type tokenReplacementList []struct{ tok, repl string }

func (l *tokenReplacementList) String() string {
	parts := make([]string, len(*l))
	for i, r := range *l {
		parts[i] = r.tok + "=" + r.repl
	}
	return strings.Join(parts, ",")
}

func (l *tokenReplacementList) Set(s string) error {
	tok, repl, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("expected TOK=REPL, got %q", s)
	}
	*l = append(*l, struct{ tok, repl string }{tok, repl})
	return nil
}

func main() {
	app.Run(run)
}

func run(ctx context.Context) int {
	scripts := flag.Args()
	if len(scripts) == 0 {
		fmt.Fprintln(os.Stderr, "usage: vkrunner [-h] [-i IMG.ppm] [-d] [-D TOK=REPL]... SCRIPT...")
		return 2
	}

	cfg := vkrunner.NewConfig()
	cfg.DisassemblyOn = *disassemble
	cfg.Error = func(message string, _ interface{}) {
		fmt.Fprintln(os.Stderr, message)
	}
	cfg.BeforeTest = func(filename string, _ interface{}) {
		fmt.Fprintf(os.Stderr, "running %s\n", filename)
	}
	cfg.AfterTest = func(filename string, result vkrunner.Result, _ interface{}) {
		fmt.Fprintf(os.Stderr, "%s: %s\n", filename, result)
	}
	if *disassemble || *imagePath != "" {
		cfg.Inspect = func(data vkrunner.InspectData, _ interface{}) {
			if *disassemble {
				dumpDisassembly(data)
			}
			if *imagePath != "" && len(data.Pixels) > 0 {
				if err := writePPM(*imagePath, data.Pixels, data.Width, data.Height); err != nil {
					fmt.Fprintf(os.Stderr, "writing %s: %v\n", *imagePath, err)
				}
			}
		}
	}

	executor := vkrunner.NewExecutor(cfg)
	defer executor.Free(ctx)

	overall := vkrunner.Pass
	for _, path := range scripts {
		src, err := vkrunner.SourceFromFile(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			overall = vkrunner.Merge(overall, vkrunner.Fail)
			continue
		}
		for _, r := range tokenFlags {
			src.AddReplacement(r.tok, r.repl)
		}
		overall = vkrunner.Merge(overall, executor.Execute(ctx, src))
	}

	fmt.Printf("PIGLIT: {\"result\": %q}\n", overall.String())

	if overall == vkrunner.Fail {
		return 1
	}
	return 0
}

// dumpDisassembly prints each shader stage's disassembly, piping through
// $PAGER when stdout is an interactive terminal and printing raw
// otherwise (e.g. when output is redirected to a log file).
func dumpDisassembly(data vkrunner.InspectData) {
	if len(data.Disassembly) == 0 {
		return
	}

	var b strings.Builder
	stages := make([]string, 0, len(data.Disassembly))
	for stage := range data.Disassembly {
		stages = append(stages, stage)
	}
	sort.Strings(stages)
	for _, stage := range stages {
		fmt.Fprintf(&b, "=== %s: %s ===\n%s\n", data.Filename, stage, data.Disassembly[stage])
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Print(b.String())
		return
	}

	pager := os.Getenv("PAGER")
	if pager == "" {
		pager = "less"
	}
	cmd := exec.Command(pager)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil || cmd.Start() != nil {
		fmt.Print(b.String())
		return
	}
	w := bufio.NewWriter(stdin)
	w.WriteString(b.String())
	w.Flush()
	stdin.Close()
	cmd.Wait()
}
