package main

import (
	"fmt"
	"os"

	"github.com/park285/adaptive-chess/internal/obslog"
)

func main() {
	err := newRootCmd().Execute()
	obslog.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
