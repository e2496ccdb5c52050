package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/lestrrat-go/backoff"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/helsing-ai/twurst/example/exampleservice"
	"github.com/helsing-ai/twurst/pkg/clock"
	"github.com/helsing-ai/twurst/pkg/logger"
	"github.com/helsing-ai/twurst/pkg/server"
)

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().StringP("addr", "a", "0.0.0.0:8081", "Address to which the HTTP server binds")
	serverCmd.Flags().StringP("grpc-addr", "g", "0.0.0.0:8082", "Address to which the gRPC server binds")
	serverCmd.Flags().Bool("verbose", false, "Enable verbose output")

	viper.BindPFlag("addr", serverCmd.Flags().Lookup("addr"))
	viper.BindPFlag("grpc-addr", serverCmd.Flags().Lookup("grpc-addr"))
	viper.BindPFlag("verbose", serverCmd.Flags().Lookup("verbose"))
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the example service listening for requests",
	Long: `
Starts the example Twirp service, exposing both a Twirp HTTP endpoint (JSON
or Protocol Buffer, depending on the caller's Content-Type) and a gRPC
endpoint serving the same methods through the adapter.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := viper.GetString("addr")
		if addr == "" {
			return errors.New("must provide a bind address")
		}

		grpcAddr := viper.GetString("grpc-addr")
		if grpcAddr == "" {
			return errors.New("must provide a gRPC bind address")
		}

		log := logger.NewLogger()

		config := &server.Config{
			ListenAddr:     addr,
			GrpcListenAddr: grpcAddr,
			Verbose:        viper.GetBool("verbose"),
		}

		impl := exampleservice.New(&exampleservice.Config{Clock: clock.New()})

		executer := backoff.ExecuteFunc(func(_ context.Context) error {
			s := server.NewServer(config, log, impl)
			return s.Start()
		})

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		policy := backoff.NewExponential()
		return backoff.Retry(ctx, policy, executer)
	},
}
