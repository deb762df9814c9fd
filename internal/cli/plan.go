package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/tracbench/internal/sweep"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	Set    []string
	Root   string
	Policy string
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "List the argument sets of the sweep without running anything",
		Long: `Print every argument set in sweep order. Without a session file the
built-in defaults are used against --root.

Example:
  tracbench plan
  tracbench plan --set max_dist=100:300:100 --policy truncate
  tracbench plan --root ./data --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "override a sweep axis, e.g. --set max_dist=100,250 (repeatable)")
	cmd.Flags().StringVar(&opts.Root, "root", ".", "dataset root when no session file exists")
	cmd.Flags().StringVar(&opts.Policy, "policy", string(sweep.PolicyPad), "axis reconciliation policy (pad|truncate)")

	return cmd
}

// planReport is the JSON payload of the plan command.
type planReport struct {
	Root   string              `json:"root"`
	Policy sweep.Policy        `json:"policy"`
	Total  int                 `json:"total"`
	Sets   []sweep.ArgumentSet `json:"sets"`
}

func runPlan(opts *PlanOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	extra, err := parseSetFlags(opts.Set)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSweep, "invalid sweep override", err)
	}

	enum, err := planEnumerator(opts, cmd, extra, formatter)
	if err != nil {
		return err
	}

	sets := enum.All()
	if formatter.IsJSON() {
		return formatter.Success(planReport{
			Root:   enum.Root(),
			Policy: enum.Policy(),
			Total:  len(sets),
			Sets:   sets,
		})
	}
	return writePlan(cmd.OutOrStdout(), enum, sets)
}

func planEnumerator(opts *PlanOptions, cmd *cobra.Command, extra sweep.Overrides, formatter *OutputFormatter) (*sweep.Enumerator, error) {
	cfg, err := loadConfig(opts.RootOptions)
	if configMissing(opts.RootOptions, err) {
		formatter.VerboseLog("No session file, using built-in defaults under %s", opts.Root)
		policy, err := sweep.ParsePolicy(opts.Policy)
		if err != nil {
			return nil, formatter.Fail(ExitCommandError, ErrCodeSweep, "invalid policy", err)
		}
		return sweep.New(opts.Root, extra, sweep.WithPolicy(policy)), nil
	}
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}

	if cmd.Flags().Changed("policy") {
		cfg.Policy = opts.Policy
	}
	enum, err := cfg.Enumerator(extra)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeSweep, "invalid sweep", err)
	}
	return enum, nil
}

func writePlan(w io.Writer, enum *sweep.Enumerator, sets []sweep.ArgumentSet) error {
	fmt.Fprintf(w, "%d argument sets (policy %s, root %s)\n\n", len(sets), enum.Policy(), enum.Root())
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "POS\tDATASET\tMAX_DIST\tMIN_DENSITY\tMAX_ANGLE\tSEGMENT_SIZE")
	for _, a := range sets {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			a.Position, a.Dataset, a.MaxDist, a.MinDensity, a.MaxAngle, a.SegmentSize)
	}
	return tw.Flush()
}
