package main

import "storycut/cmd"

func main() {
	cmd.Execute()
}
