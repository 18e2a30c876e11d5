// Sahayak is a multilingual voice and text assistant for disaster relief.
//
// Usage:
//
//	sahayak serve [--port 5000]
//	sahayak cli [--lang hi] [--no-speak]
//	sahayak languages
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
