package tasks

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/helsing-ai/twurst/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   version.BinaryName,
	Short: "Example Twirp RPC server",
	Long: `This tool runs the example Twirp RPC service built on the twurst runtime.

It exposes a simple RPC API implemented using a Twirp-compatible protocol,
serving either a JSON or Protocol Buffer encoded API over HTTP 1.1, and the
same service again over gRPC via an adapter that maps Twirp errors to gRPC
statuses.
`,
	Version: version.VersionString(),
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
