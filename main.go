package main

import "github.com/darmiel/customtoken/cmd"

func main() {
	cmd.Execute()
}
