package main

import (
	"fmt"
	"os"

	"github.com/crucial707/booktrack/cmd/cli/auth"
	"github.com/crucial707/booktrack/cmd/cli/books"
	"github.com/crucial707/booktrack/cmd/cli/root"
	"github.com/crucial707/booktrack/cmd/cli/search"
)

func main() {
	rootCmd := root.GetRoot()
	auth.InitAuth(rootCmd)
	books.InitBooks(rootCmd)
	search.InitSearch(rootCmd)

	// Execute the root Cobra command
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
