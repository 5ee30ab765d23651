// Package main is the entry point for the cmart CLI, a terminal front end
// for the classmates marketplace.
package main

import (
	"github.com/donaldgifford/classmart/cmd/cmart/cmd"
)

func main() {
	cmd.Execute()
}
