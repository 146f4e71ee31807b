package main

import "github.com/questforge/questforge/cmd"

func main() {
	cmd.Execute()
}
