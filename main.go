package main

import "github.com/portsweep/portsweep/cmd"

func main() {
	cmd.Execute()
}
