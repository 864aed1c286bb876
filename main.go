package main

import "github.com/darmiel/ghtoken/cmd"

func main() {
	cmd.Execute()
}
