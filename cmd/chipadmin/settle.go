package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ts4z/chipclock/config"
	"github.com/ts4z/chipclock/settlement"
	"github.com/ts4z/chipclock/textutil"
)

var settleDryRun bool

func settleTournament(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("bad tournament id %q: %w", args[0], err)
	}

	storage, err := newDBStorage(ctx)
	if err != nil {
		return err
	}
	defer storage.Close()

	settler := settlement.NewSettler(storage, clock, config.DefaultRoundingUnit())
	var res *settlement.Result
	if settleDryRun {
		res, err = settler.Plan(ctx, id)
	} else {
		res, err = settler.Settle(ctx, id)
	}
	var imbalance *settlement.ChipImbalanceError
	if errors.As(err, &imbalance) {
		return fmt.Errorf("recount chips: %d issued, %d counted (%+d)", imbalance.Issued, imbalance.Counted, imbalance.Discrepancy())
	}
	if err != nil {
		return err
	}

	printSettlement(res)
	if settleDryRun {
		fmt.Fprintln(out, "dry run; nothing saved")
	}
	return nil
}

func printSettlement(res *settlement.Result) {
	fmt.Fprintf(out, "tournament %d: pool %s paid by %s\n", res.TournamentID, textutil.FormatAmount(res.PrizePool), res.PayoutStructure)
	if res.Distribution.Degraded {
		printWarning("too many players for ICM; paid by chip share instead")
	}
	if res.Distribution.UsedFallbackRule {
		printWarning("no payout rule for %d players; used the first rule", len(res.Results))
	}
	rows := [][]string{}
	for _, r := range res.Results {
		rows = append(rows, []string{
			textutil.FormatPlace(r.Rank),
			strconv.FormatInt(r.MemberID, 10),
			textutil.FormatAmount(r.Prize),
		})
	}
	if err := printTable([]string{"place", "member", "prize"}, rows); err != nil {
		printWarning("can't print results: %v", err)
	}
}

func settleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settle tournament-id",
		Short: "Rank and pay an in-progress tournament",
		Args:  cobra.ExactArgs(1),
		RunE:  settleTournament,
	}
	cmd.Flags().BoolVar(&settleDryRun, "dry-run", false, "Show the payouts without saving anything")
	return cmd
}
