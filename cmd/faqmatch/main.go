// Package main provides the entry point for the faqmatch CLI.
package main

import (
	"os"

	"github.com/acurlabs/faqmatch/cmd/faqmatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
