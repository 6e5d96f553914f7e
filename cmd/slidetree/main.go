package main

import "github.com/dgallion1/slidegest/cmd/slidetree/cmd"

func main() {
	cmd.Execute()
}
