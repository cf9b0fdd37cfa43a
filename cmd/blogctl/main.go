package main

import "github.com/papa-aryan/ascii-web/cmd/blogctl/commands"

func main() {
	commands.Execute()
}
