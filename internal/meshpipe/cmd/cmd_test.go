// Copyright © 2025 jackelyj <dreamerlyj@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
//

package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/meshpipe/meshpipe/pkg/logger"
)

func init() {
	logger.Logger, _ = zap.NewDevelopment()
}

func TestNewRootMeshpipeCommand(t *testing.T) {
	execute := func(cmd *cobra.Command, args ...string) (string, error) {
		stdout := new(bytes.Buffer)
		cmd.SetOut(stdout)
		cmd.SetErr(new(bytes.Buffer))
		cmd.SetArgs(args)
		err := cmd.Execute()
		return stdout.String(), err
	}

	t.Run("root command properties", func(t *testing.T) {
		cmd := NewRootMeshpipeCommand()
		assert.NotNil(t, cmd)
		assert.Equal(t, "meshpipe", cmd.Use)
		assert.Equal(t, "meshpipe node application", cmd.Short)
		assert.Equal(t, "0.1.0", cmd.Version)
		assert.False(t, cmd.HasParent())
	})

	t.Run("subcommands", func(t *testing.T) {
		cmd := NewRootMeshpipeCommand()
		subcommands := cmd.Commands()
		assert.Len(t, subcommands, 2)

		var serveCmd, versionCmd *cobra.Command
		for _, subcmd := range subcommands {
			switch subcmd.Use {
			case "serve":
				serveCmd = subcmd
			case "version":
				versionCmd = subcmd
			}
		}

		assert.NotNil(t, serveCmd)
		assert.Equal(t, "Start the meshpipe node", serveCmd.Short)
		assert.True(t, serveCmd.HasParent())

		assert.NotNil(t, versionCmd)
		assert.Equal(t, "Print version", versionCmd.Short)
	})

	t.Run("version flag", func(t *testing.T) {
		cmd := NewRootMeshpipeCommand()
		out, err := execute(cmd, "--version")
		assert.NoError(t, err)
		assert.Contains(t, out, "0.1.0")
	})
}
