package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aspectlab/metastore/internal/dao"
)

// NewNewIDCommand creates the newid command.
func NewNewIDCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "newid <namespace>",
		Short: "Allocate the next numeric id in a namespace",
		Long: `Allocate the next monotonically increasing numeric id for a namespace.
Concurrent allocations of the same id are resolved by transaction retry.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNewID(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runNewID(opts *RootOptions, namespace string, cmd *cobra.Command) error {
	e, err := openEnv(opts)
	if err != nil {
		return err
	}
	defer e.Close()

	id, err := e.store.NewNumericID(cmd.Context(), namespace, dao.DefaultMaxTransactionRetries)
	if err != nil {
		return WrapExitError(ExitFailure, "allocation failed", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	return formatter.SuccessText(
		fmt.Sprintf("%d", id),
		map[string]any{"namespace": namespace, "id": id},
	)
}
