// CLAUDE:SUMMARY Entry point for the depeche CLI.
package main

import "github.com/hazyhaar/depeche/cli"

func main() {
	cli.Execute()
}
