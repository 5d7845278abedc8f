package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medassist/triage/internal/config"
	"github.com/medassist/triage/internal/consult"
)

var consultCmd = &cobra.Command{
	Use:   "consult",
	Short: "Run a full triage consultation and print the plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		svc, err := buildService(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		intake := consult.Intake{
			Symptoms: symptomsFlag,
			Age:      ageFlag,
			Duration: durationFlag,
			Extra:    extraFlag,
		}

		outcome, err := svc.ConsultWithSink(cmd.Context(), intake, func(t consult.Turn) {
			fmt.Println(renderTurn(t))
		})
		if err != nil {
			return err
		}

		fmt.Println()
		fmt.Println(renderOutcome(outcome))
		return nil
	},
}

func init() {
	consultCmd.Flags().StringVar(&symptomsFlag, "symptoms", "", "symptom description (required)")
	consultCmd.Flags().StringVar(&ageFlag, "age", "", "age (optional)")
	consultCmd.Flags().StringVar(&durationFlag, "duration", "", "symptom duration (optional)")
	consultCmd.Flags().StringVar(&extraFlag, "extra", "", "allergies, meds, conditions (optional)")
	_ = consultCmd.MarkFlagRequired("symptoms")
}
