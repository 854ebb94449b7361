package main

import "github.com/timvw/iterm-relay/cmd"

func main() {
	cmd.Execute()
}
