package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"omibyte.io/devicedriver"
)

var (
	in        string
	outFormat string
	snippet   bool
)

func init() {
	flag.StringVar(&in, "in", "", "input device description file (.dsl, .json, .yaml, .toml)")
	flag.StringVar(&outFormat, "out-format", "text", "diagnostic rendering: text or snippet")
	flag.BoolVar(&snippet, "snippet", false, "render diagnostics as underlined source snippets")
	flag.Parse()
}

func main() {
	if in == "" {
		log.Fatal("missing -in")
	}

	device, diags := devicedriver.CompileFile(in)

	src, _ := os.ReadFile(in)
	for _, d := range diags {
		if snippet || outFormat == "snippet" {
			fmt.Fprintln(os.Stderr, renderDiag(d, string(src), true))
		} else {
			fmt.Fprintln(os.Stderr, renderDiag(d, string(src), false))
		}
	}

	if device == nil {
		log.Fatalf("compilation failed with %d diagnostic(s)", len(diags))
	}

	fmt.Printf("compiled %q: %d top-level object(s)\n", device.Name, len(device.RootBlock.Children))
}
