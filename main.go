package main

import "github.com/telekom/people-sync/cmd"

func main() {
	cmd.Execute()
}
