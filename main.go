package main

import "github.com/theirongolddev/envelope/cmd"

func main() {
	cmd.Execute()
}
