package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/resolver-cli/internal/model"
)

var runInput model.CompanyInput

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Resolve a single company row",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		job, err := env.Pipeline.Run(ctx, runInput)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("resolution complete",
			zap.String("company", runInput.Name),
			zap.String("domain", job.Record.Domain),
			zap.Float64("confidence", job.Record.DomainConfidence),
			zap.Int("contacts", len(job.Record.Contacts)),
			zap.Float64("cost_usd", job.Record.TotalCostUSD),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(job.Record)
	},
}

func init() {
	runCmd.Flags().StringVar(&runInput.Name, "name", "", "company name (required)")
	runCmd.Flags().StringVar(&runInput.Domain, "domain", "", "known website domain")
	runCmd.Flags().StringVar(&runInput.City, "city", "", "city")
	runCmd.Flags().StringVar(&runInput.State, "state", "", "state or region")
	runCmd.Flags().StringVar(&runInput.Phone, "phone", "", "phone number")
	runCmd.Flags().StringVar(&runInput.Address, "address", "", "street address")
	runCmd.Flags().StringVar(&runInput.Category, "category", "", "business category")
	runCmd.Flags().StringVar(&runInput.Context, "context", "", "free-text context for LLM stages")
	_ = runCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(runCmd)
}
