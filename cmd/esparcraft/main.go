package main

import (
	"esparcraft/internal/cli/cmd"
)

func main() {
	cmd.Execute()
}
