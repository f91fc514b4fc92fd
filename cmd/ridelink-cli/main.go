package main

import "github.com/tmoran/ridelink/cmd/ridelink-cli/cmd"

func main() {
	cmd.Execute()
}
