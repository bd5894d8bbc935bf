package main

import "github.com/skillhub/skillhub/cmd/skillhubctl/commands"

func main() {
	commands.Execute()
}
