package main

import "assignmint.com/assignmint/cmd"

func main() {
	cmd.Execute()
}
