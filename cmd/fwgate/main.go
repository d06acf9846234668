package main

import "github.com/jmcleod/fwgate/cmd/fwgate/cmd"

func main() {
	cmd.Execute()
}
