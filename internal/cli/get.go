package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aspectlab/metastore/internal/aspect"
	"github.com/aspectlab/metastore/internal/urn"
)

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
	Version int64
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get <urn> <aspect>",
		Short: "Read an aspect value",
		Long: `Read the value of (urn, aspect). By default the latest value; pass
--version to read a historical snapshot.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Version, "version", 0, "version to read (0 = latest)")

	return cmd
}

func runGet(opts *GetOptions, urnText, aspectName string, cmd *cobra.Command) error {
	u, err := urn.Parse(urnText)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid urn", err)
	}
	if opts.Version < 0 {
		return WrapExitError(ExitCommandError, fmt.Sprintf("version must be non-negative: %d", opts.Version), nil)
	}

	e, err := openEnv(opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.Close()

	aspect.RegisterGeneric(e.registry, aspectName)
	d := e.dao(u.EntityType())

	key := aspect.Key{Urn: u, Aspect: aspectName, Version: opts.Version}
	result, err := d.BatchGetWithExtraInfo(cmd.Context(), []aspect.Key{key})
	if err != nil {
		return WrapExitError(ExitFailure, "read failed", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	got, ok := result[key]
	if !ok {
		return formatter.SuccessText(
			fmt.Sprintf("%s#%s@%d: not found", u, aspectName, opts.Version),
			map[string]any{"key": key.String(), "found": false},
		)
	}

	generic := got.Value.(*aspect.Generic)
	return formatter.SuccessText(
		fmt.Sprintf("%s#%s@%d by %s at %d: %v",
			u, aspectName, opts.Version, got.Info.Audit.Actor, got.Info.Audit.TimeMillis, generic.Fields),
		map[string]any{
			"key":        key.String(),
			"found":      true,
			"fields":     generic.Fields,
			"created_on": got.Info.Audit.TimeMillis,
			"created_by": got.Info.Audit.Actor.String(),
		},
	)
}
