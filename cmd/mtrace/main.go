// mtrace inspects and verifies exported device recordings.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/akeido/marionette/record"
)

func main() {
	root := &cobra.Command{
		Use:           "mtrace",
		Short:         "Inspect and verify device action recordings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(infoCmd(), verifyCmd(), dumpCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadExport(path string) (*record.Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var export record.Export
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &export, nil
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <recording.json>",
		Short: "Summarize a recording's schemas and frame count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			export, err := loadExport(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("id:       %s\n", export.ID)
			fmt.Printf("created:  %s\n", export.CreatedAt.Format("2006-01-02 15:04:05 MST"))
			fmt.Printf("digest:   %s\n", export.Digest)
			fmt.Printf("frames:   %d\n", len(export.Recording.Frames))
			fmt.Printf("inputs:   %d\n", len(export.Recording.Schema))
			for _, entry := range export.Recording.Schema {
				s := entry.Schema
				kind := "controller"
				if s.HasHand {
					kind = "hand"
				}
				fmt.Printf("  [%d] %s %s (grip=%v gamepad=%v) profiles=%v\n",
					entry.Index, s.Handedness, kind, s.HasGrip, s.HasGamepad, s.Profiles)
			}
			return nil
		},
	}
}

func verifyCmd() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "verify <recording.json>",
		Short: "Check the recording's digest and frame decodability",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			export, err := loadExport(args[0])
			if err != nil {
				return err
			}
			if err := export.Verify(workers); err != nil {
				return err
			}
			fmt.Printf("ok: %d frames, digest %s\n", len(export.Recording.Frames), export.Digest)
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "verification worker count")
	return cmd
}

func dumpCmd() *cobra.Command {
	var frameIndex int

	cmd := &cobra.Command{
		Use:   "dump <recording.json>",
		Short: "Decode one frame against the schema table and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			export, err := loadExport(args[0])
			if err != nil {
				return err
			}

			frames := export.Recording.Frames
			if frameIndex < 0 || frameIndex >= len(frames) {
				return fmt.Errorf("frame %d out of range (recording has %d)", frameIndex, len(frames))
			}

			table := make(map[int]record.Schema, len(export.Recording.Schema))
			for _, entry := range export.Recording.Schema {
				table[entry.Index] = entry.Schema
			}

			sample, err := record.Decompress(frames[frameIndex], table)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(sample, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().IntVar(&frameIndex, "frame", 0, "frame index to decode")
	return cmd
}
