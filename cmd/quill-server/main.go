package main

import (
	"context"
	"fmt"
	"os"

	"quill-server-go/internal/bootstrap"
)

func main() {
	if err := bootstrap.Run(context.Background()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "quill-server failed: %v\n", err)
		os.Exit(1)
	}
}
