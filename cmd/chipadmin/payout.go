package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ts4z/chipclock/config"
	"github.com/ts4z/chipclock/paytable"
	"github.com/ts4z/chipclock/state"
	"github.com/ts4z/chipclock/textutil"
)

var (
	previewFile  string
	previewID    int64
	previewPool  int64
	previewChips string
	previewUnit  int64
	importForce  bool
)

// parseChips reads "400,300,300" and sorts it into finishing order.
func parseChips(s string) ([]int64, error) {
	chips := []int64{}
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		c, err := strconv.ParseInt(strings.ReplaceAll(f, "_", ""), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("can't parse chip count %q: %w", f, err)
		}
		if c < 0 {
			return nil, fmt.Errorf("chip count can't be negative: %d", c)
		}
		chips = append(chips, c)
	}
	if len(chips) == 0 {
		return nil, errors.New("no chip counts given")
	}
	slices.Sort(chips)
	slices.Reverse(chips)
	return chips, nil
}

// previewStructure loads --file, or a built-in by --id.  Only built-ins are
// available by id without a database.
func previewStructure(ctx context.Context) (*paytable.PayoutStructure, error) {
	if previewFile != "" {
		return loadPayoutStructure(previewFile)
	}
	return state.NewBuiltinPayoutStorage().FetchPayoutStructure(ctx, previewID)
}

func loadPayoutStructure(path string) (*paytable.PayoutStructure, error) {
	b, err := readInput(path)
	if err != nil {
		return nil, err
	}
	ps, err := paytable.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ps, nil
}

func payoutRows(chips []int64, p *paytable.Payout) [][]string {
	rows := [][]string{}
	for i := range chips {
		rows = append(rows, []string{
			textutil.FormatPlace(i + 1),
			strconv.FormatInt(chips[i], 10),
			strconv.FormatFloat(p.Percentages[i], 'f', 2, 64),
			textutil.FormatAmount(p.Amounts[i]),
		})
	}
	return rows
}

func previewPayout(cmd *cobra.Command, args []string) error {
	ps, err := previewStructure(cmd.Context())
	if err != nil {
		return err
	}
	chips, err := parseChips(previewChips)
	if err != nil {
		return err
	}
	unit := config.DefaultRoundingUnit()
	if previewUnit > 0 {
		ps.RoundingUnit = previewUnit
	}

	p, err := ps.Payout(previewPool, chips, unit)
	if err != nil {
		return err
	}
	for _, problem := range ps.Validate() {
		printWarning("%s: %s", ps.Name, problem)
	}
	if p.Degraded {
		printWarning("too many players for ICM; paid by chip share instead")
	}
	if p.UsedFallbackRule {
		printWarning("no rule for %d players; used the first rule", len(chips))
	}
	fmt.Fprintf(out, "%s, pool %s in units of %d\n", ps.Name, textutil.FormatAmount(previewPool), ps.Unit(unit))
	return printTable([]string{"place", "chips", "percent", "amount"}, payoutRows(chips, p))
}

func validatePayouts(cmd *cobra.Command, args []string) error {
	bad := 0
	for _, path := range args {
		ps, err := loadPayoutStructure(path)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", path, err)
			bad++
			continue
		}
		problems := ps.Validate()
		for _, problem := range problems {
			fmt.Fprintf(out, "%s: %s\n", path, problem)
		}
		if len(problems) > 0 {
			bad++
		} else {
			fmt.Fprintf(out, "%s: ok\n", path)
		}
	}
	if bad > 0 {
		return fmt.Errorf("%d of %d payout structures have problems", bad, len(args))
	}
	return nil
}

func listPayouts(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	var ps state.PayoutStorage = state.NewBuiltinPayoutStorage()
	if config.SQLConnector() != "fake" {
		storage, err := newDBStorage(ctx)
		if err != nil {
			return err
		}
		defer storage.Close()
		ps = storage
	}

	slugs, err := ps.FetchPayoutStructureSlugs(ctx)
	if err != nil {
		return fmt.Errorf("fetching payout structures: %w", err)
	}
	rows := [][]string{}
	for _, slug := range slugs {
		rows = append(rows, []string{strconv.FormatInt(slug.ID, 10), slug.Name})
	}
	return printTable([]string{"id", "name"}, rows)
}

func importPayout(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ps, err := loadPayoutStructure(args[0])
	if err != nil {
		return err
	}
	if problems := ps.Validate(); len(problems) > 0 {
		for _, problem := range problems {
			printWarning("%s", problem)
		}
		if !importForce {
			return fmt.Errorf("%s has %d problems; use --force to import anyway", args[0], len(problems))
		}
	}

	storage, err := newDBStorage(ctx)
	if err != nil {
		return err
	}
	defer storage.Close()

	id, err := storage.CreatePayoutStructure(ctx, ps)
	if err != nil {
		return fmt.Errorf("saving payout structure: %w", err)
	}
	fmt.Fprintf(out, "payout structure %q saved as id %d\n", ps.Name, id)
	return nil
}

func payoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payout",
		Short: "Payout structures",
	}

	preview := &cobra.Command{
		Use:   "preview",
		Short: "Show what a payout structure pays for some chip counts",
		Args:  cobra.NoArgs,
		RunE:  previewPayout,
	}
	preview.Flags().StringVar(&previewFile, "file", "", "YAML payout structure (- for stdin)")
	preview.Flags().Int64Var(&previewID, "id", -1, "Built-in payout structure id, if no --file")
	preview.Flags().Int64Var(&previewPool, "pool", 0, "Prize pool")
	preview.Flags().StringVar(&previewChips, "chips", "", "Comma-separated final chip counts")
	preview.Flags().Int64Var(&previewUnit, "unit", 0, "Rounding unit (default from the structure, then config)")
	_ = preview.MarkFlagRequired("pool")
	_ = preview.MarkFlagRequired("chips")

	validate := &cobra.Command{
		Use:   "validate file...",
		Short: "Check payout structure files for overlapping rules, bad sums and the like",
		Args:  cobra.MinimumNArgs(1),
		RunE:  validatePayouts,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List payout structures",
		Args:  cobra.NoArgs,
		RunE:  listPayouts,
	}

	imp := &cobra.Command{
		Use:   "import file",
		Short: "Save a YAML payout structure to the database",
		Args:  cobra.ExactArgs(1),
		RunE:  importPayout,
	}
	imp.Flags().BoolVar(&importForce, "force", false, "Import even if validation finds problems")

	cmd.AddCommand(preview, validate, list, imp)
	return cmd
}
