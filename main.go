package main

import "github.com/notargets/hybridpic/cmd"

func main() {
	cmd.Execute()
}
