// Command shoebox manages a local photo library.
package main

import "github.com/mesh-intelligence/shoebox/internal/cli"

func main() {
	cli.Execute()
}
