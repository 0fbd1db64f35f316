package main

import "github.com/pomd-project/pomd/internal/cli"

// version is stamped at build time via -ldflags "-X main.version=v0.x.y".
var version = "dev"

func main() {
	cli.Version = version
	cli.Execute()
}
