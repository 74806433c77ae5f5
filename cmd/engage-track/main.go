package main

import "engage-track/cmd"

func main() {
	cmd.Execute()
}
