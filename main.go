package main

import "github.com/nfrais/notes-de-frais/cmd"

func main() {
	cmd.Execute()
}
