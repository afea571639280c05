package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"NeuroQ/global/config"
	"NeuroQ/module/triage"
	"NeuroQ/tools/errs"
	"NeuroQ/tools/security"

	"github.com/spf13/cobra"
)

var (
	triageSymptoms []string
	triageMood     int
	triageStress   int
	triageSleep    float64
	tokenRole      string

	triageCmd = &cobra.Command{
		Use:   "triage [text...]",
		Short: "Run the triage heuristic once and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runTriage,
	}

	tokenCmd = &cobra.Command{
		Use:   "token <user_id>",
		Short: "Sign a development token with the configured secret",
		Args:  cobra.ExactArgs(1),
		RunE:  runToken,
	}
)

func init() {
	f := triageCmd.Flags()
	f.StringSliceVar(&triageSymptoms, "symptom", nil, "selected symptom, repeatable")
	f.IntVar(&triageMood, "mood", 0, "mood rating 1-10 (0 = not given)")
	f.IntVar(&triageStress, "stress", 0, "stress level 1-10 (0 = not given)")
	f.Float64Var(&triageSleep, "sleep", -1, "hours of sleep (negative = not given)")

	tokenCmd.Flags().StringVar(&tokenRole, "role", "", `role claim, "operator" for the push API`)
}

func runTriage(cmd *cobra.Command, args []string) error {
	in, err := triageInput(strings.Join(args, " "))
	if err != nil {
		return err
	}
	out := triage.NewEngine().Predict(in)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func triageInput(text string) (triage.Input, error) {
	in := triage.Input{Text: text, Symptoms: triageSymptoms}
	if triageMood != 0 {
		if triageMood < 1 || triageMood > 10 {
			return in, errs.ErrBadRequest.WrapMsg("mood must be 1-10", "mood", triageMood)
		}
		m := triageMood
		in.Mood = &m
	}
	if triageStress != 0 {
		if triageStress < 1 || triageStress > 10 {
			return in, errs.ErrBadRequest.WrapMsg("stress must be 1-10", "stress", triageStress)
		}
		s := triageStress
		in.Stress = &s
	}
	if triageSleep >= 0 {
		h := triageSleep
		in.SleepHours = &h
	}
	return in, nil
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	tok, exp, err := security.GenerateWithRole(security.Options{
		Secret: []byte(cfg.Auth.Secret),
		Alg:    cfg.Auth.Alg,
		TTL:    cfg.Auth.TTL,
	}, args[0], tokenRole)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\nexpires %s\n", tok, exp.Format("2006-01-02T15:04:05Z07:00"))
	return nil
}
