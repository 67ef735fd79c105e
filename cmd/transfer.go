package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"timecard/database"
	"timecard/spreadsheet"
	"timecard/timecard"

	"github.com/spf13/cobra"
)

var (
	transferUserID uint
	transferMonth  string
	transferFile   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a user's month to an xlsx file",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		m, err := timecard.ParseMonth(transferMonth)
		if err != nil {
			return err
		}
		user, err := database.NewStore(database.GetDB()).FindUser(cmd.Context(), transferUserID)
		if err != nil {
			return err
		}
		report, err := svc.Report(cmd.Context(), user, user.ID, m)
		if err != nil {
			return err
		}

		path := transferFile
		if path == "" {
			path = fmt.Sprintf("timecard_%d_%s.xlsx", user.ID, m)
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := spreadsheet.WriteReport(f, user.DisplayName(), report); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace days of a user's month from an xlsx or CSV file",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		m, err := timecard.ParseMonth(transferMonth)
		if err != nil {
			return err
		}
		user, err := database.NewStore(database.GetDB()).FindUser(cmd.Context(), transferUserID)
		if err != nil {
			return err
		}

		f, err := os.Open(transferFile)
		if err != nil {
			return err
		}
		defer f.Close()

		var days map[int][]timecard.Entry
		if strings.EqualFold(filepath.Ext(transferFile), ".csv") {
			days, err = spreadsheet.ReadCSV(f, m, svc.Location())
		} else {
			days, err = spreadsheet.ReadReport(f, m, svc.Location())
		}
		if err != nil {
			return err
		}
		report, err := svc.ReplaceDays(cmd.Context(), user, m, days)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d days, total %s\n", len(days), report.TotalWorkHours)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{exportCmd, importCmd} {
		c.Flags().UintVar(&transferUserID, "user-id", 0, "user whose timecard is transferred")
		c.Flags().StringVar(&transferMonth, "month", "", "month as YYYYMM")
		c.Flags().StringVar(&transferFile, "file", "", "xlsx or CSV file")
		c.MarkFlagRequired("user-id")
		c.MarkFlagRequired("month")
		rootCmd.AddCommand(c)
	}
	importCmd.MarkFlagRequired("file")
}
