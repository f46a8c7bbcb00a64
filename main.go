package main

import (
	"agentteam/cli"
)

func main() {
	cli.Execute()
}
