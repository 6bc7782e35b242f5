package main

import "github.com/unioauth/unioauth/cmd/unioauth/cmd"

func main() {
	cmd.Execute()
}
