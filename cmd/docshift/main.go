package main

import (
	"fmt"
	"github.com/logrusorgru/aurora/v3"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// stage errors print as "<stage> failed: <cause>"
		fmt.Fprintln(os.Stderr, aurora.Red("docshift: "), err.Error())
		os.Exit(1)
	}
}
