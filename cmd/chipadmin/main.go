package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ts4z/chipclock/config"
	"github.com/ts4z/chipclock/ts"
)

var clock = ts.NewRealClock()

func rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Short:        "Chipclock administration tool",
		Use:          "chipadmin",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(
		clockCommand(),
		payoutCommand(),
		structureCommand(),
		settleCommand(),
		dbCommand(),
	)
	return rootCmd
}

func main() {
	config.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCommand().ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		stop()
		os.Exit(1)
	}
}
