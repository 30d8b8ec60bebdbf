package main

import "github.com/portfolioagent/portfolioagent/internal/cmd"

func main() {
	cmd.Execute()
}
