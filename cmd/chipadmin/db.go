package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ts4z/chipclock/dbutil"
	"github.com/ts4z/chipclock/state"
)

func newDBStorage(ctx context.Context) (*state.DBStorage, error) {
	db, err := dbutil.Connect(ctx)
	if errors.Is(err, dbutil.ErrFakeConnector) {
		return nil, errors.New("this command needs a database, but sql_connector is \"fake\"")
	}
	if err != nil {
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}
	return state.NewDBStorage(db), nil
}

// openInput opens path, or stdin for "-".
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func readInput(path string) ([]byte, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func initDB(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	storage, err := newDBStorage(ctx)
	if err != nil {
		return err
	}
	defer storage.Close()

	if err := storage.InitSchema(ctx); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	fmt.Fprintln(out, "schema ok")
	return nil
}

func dbCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create tables and change triggers if they don't exist",
		Args:  cobra.NoArgs,
		RunE:  initDB,
	})
	return cmd
}
