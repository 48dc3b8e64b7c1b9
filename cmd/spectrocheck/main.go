package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	err := newRootCommand().Execute()
	if err == nil {
		return
	}
	// Interrupts surface as context.Canceled; exit quietly on those.
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "spectrocheck: %v\n", err)
	}
	os.Exit(1)
}
