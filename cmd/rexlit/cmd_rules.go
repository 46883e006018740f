package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rexlit/rexlit/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Calculate jurisdictional filing deadlines",
}

var (
	rulesJurisdiction string
	rulesEvent        string
	rulesDate         string
	rulesService      string
	rulesExplain      bool
	rulesICSOut       string
)

var rulesCalcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Resolve every deadline defined for a jurisdiction/event pair",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDate, err := time.Parse("2006-01-02", rulesDate)
		if err != nil {
			return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
		}

		engine, err := rules.NewEngine()
		if err != nil {
			return err
		}

		results, err := engine.Calculate(rulesJurisdiction, rulesEvent, baseDate, rules.ServiceMethod(rulesService), rulesExplain)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))

		if rulesICSOut != "" {
			ics := rules.ExportICS(rulesJurisdiction, results)
			if err := os.WriteFile(rulesICSOut, []byte(ics), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "iCalendar export written to %s\n", rulesICSOut)
		}
		return nil
	},
}

func init() {
	rulesCalcCmd.Flags().StringVar(&rulesJurisdiction, "jurisdiction", "", "jurisdiction code, e.g. TX or FL")
	rulesCalcCmd.Flags().StringVar(&rulesEvent, "event", "", "triggering event name defined in the jurisdiction's rule pack")
	rulesCalcCmd.Flags().StringVar(&rulesDate, "date", "", "triggering event date, YYYY-MM-DD")
	rulesCalcCmd.Flags().StringVar(&rulesService, "service", string(rules.ServicePersonal), "service method: personal, mail, or eservice")
	rulesCalcCmd.Flags().BoolVar(&rulesExplain, "explain", false, "include a human-readable arithmetic trace per deadline")
	rulesCalcCmd.Flags().StringVar(&rulesICSOut, "ics", "", "also write results as an iCalendar (.ics) file to this path")
	_ = rulesCalcCmd.MarkFlagRequired("jurisdiction")
	_ = rulesCalcCmd.MarkFlagRequired("event")
	_ = rulesCalcCmd.MarkFlagRequired("date")

	rulesCmd.AddCommand(rulesCalcCmd)
}
