package main

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/Agrid-Dev/coldload/internal/coldroom"
)

// SweepExternalTemperature writes one CSV row per ambient temperature from
// fromC to toC (inclusive) with every load term for the default room.
func SweepExternalTemperature(fromC, toC, stepC float64, filename string) error {
	if stepC <= 0 {
		return fmt.Errorf("step must be positive, got %v", stepC)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write CSV header
	if err := writer.Write([]string{
		"ExternalTemp", "Transmission", "Product", "Respiration", "AirChange",
		"DoorOpening", "Miscellaneous", "Heaters", "Total", "Final", "TR",
	}); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for t := fromC; t <= toC+1e-9; t += stepC {
		in := coldroom.Inputs{Conditions: coldroom.Record{"externalTemp": t}}
		r, err := coldroom.Calculate(in)
		if err != nil {
			return fmt.Errorf("external temperature %.1f: %v", t, err)
		}
		b := r.Breakdown
		if err := writer.Write([]string{
			fmt.Sprintf("%.1f", t),
			fmt.Sprintf("%.3f", b.Transmission.Total),
			fmt.Sprintf("%.3f", b.Product),
			fmt.Sprintf("%.3f", b.Respiration),
			fmt.Sprintf("%.3f", b.AirChange),
			fmt.Sprintf("%.3f", b.DoorOpening),
			fmt.Sprintf("%.3f", b.Miscellaneous.Total),
			fmt.Sprintf("%.3f", b.Heaters.Total),
			fmt.Sprintf("%.3f", r.TotalBeforeSafety),
			fmt.Sprintf("%.3f", r.FinalLoad),
			fmt.Sprintf("%.3f", r.TotalTR),
		}); err != nil {
			return fmt.Errorf("failed to write CSV record: %v", err)
		}
	}
	return writer.Error()
}

func main() {
	if err := SweepExternalTemperature(4, 45, 1, "coldload_sweep.csv"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
