// Package main generates CLI reference documentation from the cmart command tree.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/donaldgifford/classmart/cmd/cmart/cmd"
)

func main() {
	output := flag.String("output", "docs/cli", "output directory for generated docs")
	format := flag.String("format", "markdown", "doc format (markdown, man)")
	flag.Parse()

	if err := generate(cmd.Root(), *output, *format); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("CLI docs generated in %s/\n", *output)
}

func generate(root *cobra.Command, dir, format string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	root.DisableAutoGenTag = true

	var err error
	switch format {
	case "markdown":
		err = doc.GenMarkdownTree(root, dir)
	case "man":
		err = doc.GenManTree(root, &doc.GenManHeader{Title: "CMART", Section: "1"}, dir)
	default:
		return fmt.Errorf("unknown format %q (want markdown or man)", format)
	}
	if err != nil {
		return fmt.Errorf("generating docs: %w", err)
	}
	return nil
}
