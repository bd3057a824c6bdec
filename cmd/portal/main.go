package main

import "github.com/algenord/portal/cmd/portal/cmd"

func main() {
	cmd.Execute()
}
