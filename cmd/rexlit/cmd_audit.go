package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rexlit/rexlit/internal/audit"
	"github.com/rexlit/rexlit/internal/rexerr"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect or verify the tamper-evident audit ledger",
}

var auditShowTail int

var auditShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print audit ledger entries as JSONL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := resolveSettings()
		if err != nil {
			return err
		}
		ledger, err := openAudit(settings)
		if err != nil {
			return err
		}
		defer ledger.Close()

		var entries []audit.Entry
		if auditShowTail > 0 {
			entries, err = ledger.Tail(auditShowTail)
		} else {
			entries, err = ledger.ReadAll()
		}
		if err != nil {
			return err
		}

		out, err := audit.Fprint(entries)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the hash chain from genesis and exit nonzero on the first break",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := resolveSettings()
		if err != nil {
			return err
		}
		ledger, err := openAudit(settings)
		if err != nil {
			return err
		}
		defer ledger.Close()

		result, err := ledger.Verify()
		if err != nil {
			return err
		}
		if !result.OK {
			fmt.Fprintf(os.Stderr, "audit chain broken at entry index %d\n", result.FirstBadIndex)
			return rexerr.New(rexerr.KindChainBroken, "audit chain verification failed", map[string]any{
				"first_bad_index": result.FirstBadIndex,
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "audit chain OK")
		return nil
	},
}

func init() {
	auditShowCmd.Flags().IntVar(&auditShowTail, "tail", 0, "show only the last N entries (0 = all)")
	auditCmd.AddCommand(auditShowCmd)
	auditCmd.AddCommand(auditVerifyCmd)
}
