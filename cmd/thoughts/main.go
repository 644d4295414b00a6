// Command thoughts manages thoughts and areas of life in a local data
// directory.
package main

import "github.com/mesh-intelligence/thoughts/internal/cli"

func main() {
	cli.Execute()
}
