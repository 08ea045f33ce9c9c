package main

import (
	"context"
	"fmt"
	"os"

	clipresentation "github.com/Zhima-Mochi/notafiscal-console/internal/presentation/cli"
)

func main() {
	app := clipresentation.NewApp(buildRuntime, os.Stdout)
	if err := app.RunContext(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(clipresentation.ExitCode(err))
	}
}
