package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medassist/triage/internal/config"
	"github.com/medassist/triage/internal/redflag"
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Run only the red-flag safety gate over symptom text",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		gate, err := loadGate(cfg)
		if err != nil {
			return err
		}

		assessment := gate.Assess(symptomsFlag, ageFlag, extraFlag)
		out, err := json.MarshalIndent(assessment, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))

		if assessment.Level == redflag.LevelHigh {
			fmt.Println()
			fmt.Println(renderUrgent("High-risk symptoms detected. Seek emergency help immediately."))
		}
		return nil
	},
}

func init() {
	assessCmd.Flags().StringVar(&symptomsFlag, "symptoms", "", "symptom description (required)")
	assessCmd.Flags().StringVar(&ageFlag, "age", "", "age (optional)")
	assessCmd.Flags().StringVar(&extraFlag, "extra", "", "extra medical context (optional)")
	_ = assessCmd.MarkFlagRequired("symptoms")
}
