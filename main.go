package main

import "github.com/sarchlab/rripsim/cmd"

func main() {
	cmd.Execute()
}
