package main

import "github.com/codeincontext/claudeck/cmd"

func main() {
	cmd.Execute()
}
