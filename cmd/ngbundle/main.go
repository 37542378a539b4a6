package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
)

func main() {
	// fang prints the error itself.
	err := fang.Execute(context.Background(), newRootCmd(), fang.WithNotifySignal(os.Interrupt))
	if err != nil {
		os.Exit(1)
	}
}
