package main

import (
	"fmt"
	rtdebug "runtime/debug"

	"github.com/spf13/cobra"
)

// version is set at release time with -ldflags "-X main.version=v1.2.3".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version info",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("jobflow %s\n", versionString(version, rtdebug.ReadBuildInfo))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// versionString prefers an injected version, then the module version
// recorded by `go install`, then "dev".
func versionString(injected string, buildInfo func() (*rtdebug.BuildInfo, bool)) string {
	if injected != "" && injected != "dev" {
		return injected
	}
	if info, ok := buildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}
