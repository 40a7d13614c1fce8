package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aspectlab/metastore/internal/aspect"
	"github.com/aspectlab/metastore/internal/urn"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Start int
	Count int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <urn> <aspect>",
		Short: "List stored versions of an aspect",
		Long: `List every stored version of (urn, aspect) ascending by version,
latest slot (version 0) first, with audit metadata per row.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Start, "start", 0, "page offset")
	cmd.Flags().IntVar(&opts.Count, "count", 20, "page size")

	return cmd
}

func runHistory(opts *HistoryOptions, urnText, aspectName string, cmd *cobra.Command) error {
	u, err := urn.Parse(urnText)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid urn", err)
	}

	e, err := openEnv(opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.Close()

	aspect.RegisterGeneric(e.registry, aspectName)
	d := e.dao(u.EntityType())

	page, err := d.List(cmd.Context(), u, aspectName, opts.Start, opts.Count)
	if err != nil {
		return WrapExitError(ExitFailure, "list failed", err)
	}

	type row struct {
		Version   int64          `json:"version"`
		Fields    map[string]any `json:"fields"`
		CreatedOn int64          `json:"created_on"`
		CreatedBy string         `json:"created_by"`
	}
	rows := make([]row, len(page.Values))
	var text strings.Builder
	for i, value := range page.Values {
		info := page.ExtraInfos[i]
		generic := value.(*aspect.Generic)
		rows[i] = row{
			Version:   info.Version,
			Fields:    generic.Fields,
			CreatedOn: info.Audit.TimeMillis,
			CreatedBy: info.Audit.Actor.String(),
		}
		fmt.Fprintf(&text, "v%d by %s at %d: %v\n",
			info.Version, info.Audit.Actor, info.Audit.TimeMillis, generic.Fields)
	}
	fmt.Fprintf(&text, "%d of %d rows", len(page.Values), page.Page.TotalCount)

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	return formatter.SuccessText(text.String(), map[string]any{
		"key":         u.String() + "#" + aspectName,
		"rows":        rows,
		"total_count": page.Page.TotalCount,
		"has_more":    page.Page.HasMore,
		"next_start":  page.Page.NextStart,
	})
}
