package cli

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docingest/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and gRPC APIs",
	RunE:  runServe,
}

var (
	httpAddr string
	grpcAddr string
)

func init() {
	serveCmd.Flags().StringVar(&httpAddr, "http-addr", "", "HTTP listen address (default from HTTP_ADDR)")
	serveCmd.Flags().StringVar(&grpcAddr, "grpc-addr", "", "gRPC listen address (default from GRPC_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()
	if err := a.openStore(ctx); err != nil {
		return err
	}

	cfg := a.cfg.Server
	if cmd.Flags().Changed("http-addr") {
		cfg.HTTPAddr = httpAddr
	}
	if cmd.Flags().Changed("grpc-addr") {
		cfg.GRPCAddr = grpcAddr
	}
	svc := server.NewDocumentService(a.processor, a.repo, a.logger)
	return server.Serve(ctx, cfg, svc, a.logger)
}
