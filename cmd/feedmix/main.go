// feedmix computes least-cost feed formulas.
package main

import (
	"os"

	"github.com/costela/feedmix/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
