package main

import "github.com/billfold/billfold/cmd"

func main() {
	cmd.Execute()
}
