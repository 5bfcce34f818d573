package main

import (
	"github.com/mgoubet/urlshortener/cmd"
	_ "github.com/mgoubet/urlshortener/cmd/cli"
	_ "github.com/mgoubet/urlshortener/cmd/server"
)

// main is the entry point of the application. The CLI and server commands
// register themselves with the root command through their init() functions,
// hence the blank imports.
func main() {
	cmd.Execute()
}
