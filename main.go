package main

import (
	"fmt"
	"os"

	"foldersort/logging"
)

func main() {
	cmd := newRootCommand()
	err := cmd.Execute()
	logging.CloseLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
