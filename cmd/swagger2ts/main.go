package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/curaline/swagger2ts/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		switch {
		case errors.Is(err, cli.ErrUsage):
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		case errors.Is(err, cli.ErrGenerateFailed):
			os.Exit(1)
		default:
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
	}
}
