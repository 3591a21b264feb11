package main

import "fmt"

// version is stamped by the release build; "dev" otherwise.
var version = "dev"

// Run executes the version command.
func (c *VersionCmd) Run(deps *Dependencies) error {
	fmt.Fprintf(deps.Stdout, "docatlas %s\n", version)
	return nil
}
