package main

import "github.com/Togather-Foundation/gather/cmd/server/cmd"

func main() {
	cmd.Execute()
}
