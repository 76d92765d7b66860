package main

import (
	"github.com/robotalks/bbtx/pkg/cli/sh"
	"github.com/robotalks/bbtx/pkg/env"
)

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
