package main

import (
	"context"
	"os"
)

func main() {
	if err := RootCommand().ExecuteContext(context.Background()); err != nil {
		logger.Error("pipelinectl failed", "error", err)
		os.Exit(1)
	}
}
