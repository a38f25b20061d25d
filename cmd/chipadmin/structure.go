package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ts4z/chipclock/model"
	"github.com/ts4z/chipclock/ocsv"
)

var (
	structureName   string
	structureDryRun bool
)

func levelRows(s *model.Structure) [][]string {
	rows := [][]string{}
	for _, l := range s.Levels {
		level := ""
		if !l.IsBreak {
			level = strconv.Itoa(l.SequenceNumber)
		}
		rows = append(rows, []string{level, strconv.Itoa(l.DurationMinutes), l.Blinds(), l.Description})
	}
	return rows
}

func importStructure(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := loadStructure(args[0])
	if err != nil {
		return err
	}
	if structureName != "" {
		s.Name = structureName
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	if structureDryRun {
		fmt.Fprintf(out, "%s: %d items\n", s.Name, len(s.Levels))
		return printTable([]string{"level", "minutes", "blinds", "description"}, levelRows(s))
	}

	storage, err := newDBStorage(ctx)
	if err != nil {
		return err
	}
	defer storage.Close()

	id, err := storage.CreateStructure(ctx, s)
	if err != nil {
		return fmt.Errorf("saving structure: %w", err)
	}
	fmt.Fprintf(out, "structure %q saved as id %d\n", s.Name, id)
	return nil
}

func exportStructure(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("bad structure id %q: %w", args[0], err)
	}

	storage, err := newDBStorage(ctx)
	if err != nil {
		return err
	}
	defer storage.Close()

	s, err := storage.FetchStructure(ctx, id)
	if err != nil {
		return fmt.Errorf("fetching structure %d: %w", id, err)
	}
	return ocsv.Write(out, s.Levels)
}

func structureCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "structure",
		Short: "Blind structures",
	}

	imp := &cobra.Command{
		Use:   "import file",
		Short: "Save a structure from Oakleaf CSV, YAML, or \"minutes -- blinds -- description\" text",
		Args:  cobra.ExactArgs(1),
		RunE:  importStructure,
	}
	imp.Flags().StringVar(&structureName, "name", "", "Structure name (default from the file)")
	imp.Flags().BoolVar(&structureDryRun, "dry-run", false, "Parse and print without saving")

	export := &cobra.Command{
		Use:   "export id",
		Short: "Write a structure as Oakleaf CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportStructure,
	}

	cmd.AddCommand(imp, export)
	return cmd
}
