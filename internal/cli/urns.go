package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aspectlab/metastore/internal/index"
	"github.com/aspectlab/metastore/internal/urn"
)

// UrnsOptions holds flags for the urns command.
type UrnsOptions struct {
	*RootOptions
	Aspect string
	Where  []string
	Last   string
	Start  int
	Count  int
}

// whereOperators maps the CLI comparison spellings to index conditions.
var whereOperators = map[string]index.Condition{
	"=":  index.ConditionEqual,
	">":  index.ConditionGreaterThan,
	">=": index.ConditionGreaterThanOrEqual,
	"<":  index.ConditionLessThan,
	"<=": index.ConditionLessThanOrEqual,
	"^=": index.ConditionStartsWith,
}

// NewUrnsCommand creates the urns command.
func NewUrnsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UrnsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "urns <entity-type>",
		Short: "List urns, optionally filtered on indexed fields",
		Long: `List urns of one entity type.

With --aspect, pages offset-based over every urn that has a latest value
for that aspect. With one or more --where clauses, queries the secondary
index with keyset pagination; each clause is "aspect" alone (the urn has
the aspect) or "aspect path op value" with op one of = > >= < <= ^=
(starts-with).

Example:
  metastore --db ./meta.db urns dataset --aspect ownership
  metastore --db ./meta.db urns dataset --where 'ownership /owner = alice' --limit 10`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUrns(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Aspect, "aspect", "", "list urns having a latest value for this aspect")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "index filter clause (repeatable, ANDed)")
	cmd.Flags().StringVar(&opts.Last, "last", "", "keyset cursor: last urn of the previous page")
	cmd.Flags().IntVar(&opts.Start, "start", 0, "page offset (with --aspect)")
	cmd.Flags().IntVar(&opts.Count, "count", 20, "page size")

	return cmd
}

func runUrns(opts *UrnsOptions, entityType string, cmd *cobra.Command) error {
	if (opts.Aspect == "") == (len(opts.Where) == 0) {
		return WrapExitError(ExitCommandError, "exactly one of --aspect or --where is required", nil)
	}

	e, err := openEnv(opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.Close()
	d := e.dao(entityType)

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	if opts.Aspect != "" {
		page, err := d.ListUrns(cmd.Context(), opts.Aspect, opts.Start, opts.Count)
		if err != nil {
			return WrapExitError(ExitFailure, "list failed", err)
		}
		return formatter.SuccessText(
			urnsText(page.Urns)+fmt.Sprintf("\n%d of %d urns", len(page.Urns), page.Page.TotalCount),
			map[string]any{
				"urns":        urnStrings(page.Urns),
				"total_count": page.Page.TotalCount,
				"has_more":    page.Page.HasMore,
				"next_start":  page.Page.NextStart,
			},
		)
	}

	filter, err := parseWhere(opts.Where)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --where clause", err)
	}

	var lastUrn urn.Urn
	if opts.Last != "" {
		lastUrn, err = urn.Parse(opts.Last)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --last urn", err)
		}
	}

	urns, err := d.ListUrnsByFilter(cmd.Context(), filter, lastUrn, opts.Count)
	if err != nil {
		return WrapExitError(ExitFailure, "index query failed", err)
	}
	return formatter.SuccessText(urnsText(urns), map[string]any{"urns": urnStrings(urns)})
}

// parseWhere turns CLI clauses into an index filter.
func parseWhere(clauses []string) (index.Filter, error) {
	var filter index.Filter
	for _, clause := range clauses {
		parts := strings.Fields(clause)
		switch len(parts) {
		case 1:
			filter.Criteria = append(filter.Criteria, index.Criterion{Aspect: parts[0]})
		case 4:
			cond, ok := whereOperators[parts[2]]
			if !ok {
				return index.Filter{}, fmt.Errorf("unknown operator %q in %q", parts[2], clause)
			}
			filter.Criteria = append(filter.Criteria, index.Criterion{
				Aspect:    parts[0],
				Path:      parts[1],
				Condition: cond,
				Value:     parseValue(parts[3]),
			})
		default:
			return index.Filter{}, fmt.Errorf("clause %q must be \"aspect\" or \"aspect path op value\"", clause)
		}
	}
	return filter, nil
}

// parseValue picks the typed index column for a literal: integers go to
// the long column, other numbers to double, everything else to string.
func parseValue(literal string) index.Value {
	if i, err := strconv.ParseInt(literal, 10, 64); err == nil {
		return index.Long(i)
	}
	if f, err := strconv.ParseFloat(literal, 64); err == nil {
		return index.Double(f)
	}
	return index.String(literal)
}

func urnStrings(urns []urn.Urn) []string {
	texts := make([]string, len(urns))
	for i, u := range urns {
		texts[i] = u.String()
	}
	return texts
}

func urnsText(urns []urn.Urn) string {
	if len(urns) == 0 {
		return "(none)"
	}
	return strings.Join(urnStrings(urns), "\n")
}
