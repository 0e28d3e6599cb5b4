package main

import "github.com/lmic-node/lmic-node-formatter/cmd/lmic-node-formatter/cmd"

var version string // set by the compiler

func main() {
	cmd.Execute(version)
}
