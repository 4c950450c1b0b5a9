// Package main provides the sonido feature extraction CLI.
//
// Usage:
//
//	sonido [flags] <command> [args]
//
// Commands:
//
//	extract    - audio files to 24 x 8 log-mel .feat tables
//	basis      - fit a PCA basis to a listing of .feat files
//	reduce     - project .feat files onto a basis as .reduced vectors
//	prep-svm   - write a libsvm file from a listing of .reduced files
//	partition  - split a folder of recordings into train and test sets
package main

import (
	"fmt"
	"os"

	"github.com/RyanBlaney/sonido-features/cmd/sonido/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
