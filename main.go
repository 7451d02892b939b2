package main

import "github.com/mj1618/autoallow/cmd"

func main() {
	cmd.Execute()
}
