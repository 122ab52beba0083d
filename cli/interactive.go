package cli

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"

	"ctrl.dev/mpcd/settings"
)

func interactive() {
	s := &settings.Settings

	for {
		prompt := promptui.Select{
			Label: "Select Action",
			Items: []string{
				"Show settings",
				"Set reference speed",
				"Set latency (ms)",
				"Set solve budget (ms)",
				"Set fallback mode",
				"Use recommended tuning",
				"Save and exit",
				"Exit without saving",
			},
			Size: 8,
		}

		_, result, err := prompt.Run()
		if err != nil {
			fmt.Printf("Prompt failed %v\n", err)
			return
		}

		switch result {
		case "Show settings":
			fmt.Printf("listen: %s\nstatus: %s\nhorizon: %d x %.2fs\nref speed: %.1f m/s\nlatency: %.0f ms\nsolve budget: %.0f ms\nfallback: %s (brake %.2f)\n",
				s.Listen, s.StatusListen, s.HorizonSteps, s.StepSeconds, s.RefSpeed, s.LatencyMs, s.SolveBudgetMs, s.FallbackMode, s.FallbackBrake)
		case "Set reference speed":
			if v, ok := promptFloat("Reference speed (m/s)", s.RefSpeed); ok {
				s.RefSpeed = v
			}
		case "Set latency (ms)":
			if v, ok := promptFloat("Actuation latency (ms)", s.LatencyMs); ok {
				s.LatencyMs = v
			}
		case "Set solve budget (ms)":
			if v, ok := promptFloat("Solve budget (ms)", s.SolveBudgetMs); ok {
				s.SolveBudgetMs = v
			}
		case "Set fallback mode":
			mode := promptui.Select{
				Label: "Fallback when a cycle fails",
				Items: []string{settings.FallbackDecelerate, settings.FallbackHold},
			}
			if _, chosen, err := mode.Run(); err == nil {
				s.FallbackMode = chosen
			}
		case "Use recommended tuning":
			s.Recommended()
			fmt.Println("Recommended tuning applied (not yet saved)")
		case "Save and exit":
			s.Save()
			return
		case "Exit without saving":
			return
		}
	}
}

func promptFloat(label string, current float64) (float64, bool) {
	prompt := promptui.Prompt{
		Label:   label,
		Default: strconv.FormatFloat(current, 'f', -1, 64),
		Validate: func(input string) error {
			_, err := strconv.ParseFloat(input, 64)
			return err
		},
	}
	result, err := prompt.Run()
	if err != nil {
		fmt.Printf("Prompt failed %v\n", err)
		return 0, false
	}
	v, err := strconv.ParseFloat(result, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
