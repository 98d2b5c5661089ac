// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package cmd

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
)

const copyRightHeader = `
# SPDX-License-Identifier: Apache-2.0
# Copyright Authors of Cilium
`

var (
	completionExample = `
# Installing bash completion on Linux
## Load the cidragg completion code for bash into the current shell
	source <(cidragg completion bash)
## Write bash completion code to a file and source it from .bash_profile
	cidragg completion bash > ~/.cidragg/completion.bash.inc
	printf "
	  # cidragg shell completion
	  source '$HOME/.cidragg/completion.bash.inc'
	  " >> $HOME/.bash_profile
	source $HOME/.bash_profile

# Load the cidragg completion code for zsh into the current shell
	source <(cidragg completion zsh)

# Load the cidragg completion code for fish into the current shell
	cidragg completion fish | source`
)

func newCmdCompletion() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Output shell completion code",
		Long:      ``,
		Example:   completionExample,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompletion(cmd.OutOrStdout(), cmd, args)
		},
	}

	return cmd
}

func runCompletion(out io.Writer, cmd *cobra.Command, args []string) error {
	shell := "bash"
	if len(args) > 0 {
		shell = args[0]
	}
	if !slices.Contains(cmd.ValidArgs, shell) {
		return fmt.Errorf("unsupported shell type %q", shell)
	}

	if shell != "powershell" {
		if _, err := out.Write([]byte(copyRightHeader)); err != nil {
			return err
		}
	}

	root := cmd.Root()
	switch shell {
	case "bash":
		return root.GenBashCompletionV2(out, true)
	case "zsh":
		return root.GenZshCompletion(out)
	case "fish":
		return root.GenFishCompletion(out, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(out)
	}
	return nil
}
