package main

import "github.com/chronon-ai/launcher/cmd"

func main() {
	cmd.Execute()
}
