package main

import "github.com/diogo/chatweb/internal/commands"

func main() {
	commands.Execute()
}
