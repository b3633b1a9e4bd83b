package main

import "github.com/bryanchriswhite/taskwatch/cmd/taskwatch/commands"

func main() {
	commands.Execute()
}
