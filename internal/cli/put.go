package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aspectlab/metastore/internal/aspect"
	"github.com/aspectlab/metastore/internal/urn"
)

// PutOptions holds flags for the put command.
type PutOptions struct {
	*RootOptions
	Actor string
}

// NewPutCommand creates the put command.
func NewPutCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PutOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "put <urn> <aspect> <json>",
		Short: "Write a new aspect value",
		Long: `Write a new value for (urn, aspect). The previous latest value, if
any, moves to the next historical version.

Example:
  metastore --db ./meta.db put urn:li:dataset:tracking ownership '{"owner":"alice"}'`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPut(opts, args[0], args[1], args[2], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Actor, "actor", "urn:li:corpuser:metastore", "actor urn for the audit stamp")

	return cmd
}

func runPut(opts *PutOptions, urnText, aspectName, payload string, cmd *cobra.Command) error {
	u, err := urn.Parse(urnText)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid urn", err)
	}
	actor, err := urn.Parse(opts.Actor)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid actor urn", err)
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return WrapExitError(ExitCommandError, "payload must be a JSON object", err)
	}

	e, err := openEnv(opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.Close()

	aspect.RegisterGeneric(e.registry, aspectName)
	d := e.dao(u.EntityType())

	version, err := d.Add(cmd.Context(), u, &aspect.Generic{Name: aspectName, Fields: fields}, aspect.AuditStamp{
		TimeMillis: time.Now().UnixMilli(),
		Actor:      actor,
	})
	if err != nil {
		return WrapExitError(ExitFailure, "write failed", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	return formatter.SuccessText(
		fmt.Sprintf("wrote %s#%s (previous value at version %d)", u, aspectName, version),
		map[string]any{"urn": u.String(), "aspect": aspectName, "history_version": version},
	)
}
