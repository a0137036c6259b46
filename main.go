package main

import "github.com/AvaProtocol/replayable-aa/cmd"

func main() {
	cmd.Execute()
}
