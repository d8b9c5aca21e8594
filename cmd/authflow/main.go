package main

import "github.com/chatline/authflow/cmd/authflow/cmd"

func main() {
	cmd.Execute()
}
