package main

import "github.com/spaghettifunk/anima-assets/cmd"

func main() {
	cmd.Execute()
}
