package main

import (
	consolecmd "github.com/initializ/glewlwyd-console/cmd"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	consolecmd.SetVersionInfo(version, commit)
	consolecmd.Execute()
}
