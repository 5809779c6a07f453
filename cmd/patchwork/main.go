// Package main provides the patchwork CLI.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
)

const version = "v0.1.0-dev"

func main() {
	log.SetFlags(log.LstdFlags)
	log.SetPrefix("patchwork: ")

	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		usage(out)
		return nil
	}
	switch args[0] {
	case "pretrain":
		return runPretrain(args[1:], out)
	case "embed":
		return runEmbed(args[1:], out)
	case "version":
		fmt.Fprintf(out, "patchwork %s\n", version)
		return nil
	case "help", "-h", "-help", "--help":
		usage(out)
		return nil
	default:
		usage(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage(out io.Writer) {
	fmt.Fprintln(out, "patchwork - self-supervised image features")
	fmt.Fprintf(out, "Version: %s\n\n", version)
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  pretrain   Train an embedding model with SimCLR")
	fmt.Fprintln(out, "  embed      Write image embeddings to CSV")
	fmt.Fprintln(out, "  version    Show version")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Run 'patchwork <command> -h' for command flags.")
}
