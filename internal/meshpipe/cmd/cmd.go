package cmd

import (
	"github.com/meshpipe/meshpipe/internal/meshpipe/cmd/serve"
	"github.com/meshpipe/meshpipe/internal/meshpipe/cmd/version"
	"github.com/spf13/cobra"
)

func NewRootMeshpipeCommand() *cobra.Command {
	cmds := &cobra.Command{
		Use:     "meshpipe",
		Short:   "meshpipe node application",
		Version: "0.1.0",
	}
	cmds.AddCommand(serve.NewServeCmd())
	cmds.AddCommand(version.NewVersionCommand())
	return cmds
}
