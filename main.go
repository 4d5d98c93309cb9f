// Command hioa-sim runs household equipment scenarios; see cmd/root.go for
// the subcommands.
package main

import (
	"github.com/hioa-sim/hioa-sim/cmd"
)

func main() {
	cmd.Execute()
}
