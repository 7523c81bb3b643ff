// Command edgeshim answers health probes, launches the backend process and
// proxies API traffic to it.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "edgeshim:", err)
		os.Exit(1)
	}
}
