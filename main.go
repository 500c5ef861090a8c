package main

import "github.com/nodewee/docrag/cmd"

// Set with -ldflags "-X main.Version=... -X main.GitCommit=..."
var (
	Version   = "dev"
	GitCommit = "none"
	BuildTime = "unknown"
	BuildBy   = "unknown"
)

func main() {
	cmd.SetVersionInfo(Version, GitCommit, BuildTime, BuildBy)
	cmd.Execute()
}
