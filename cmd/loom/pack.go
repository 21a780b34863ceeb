package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/loom/internal/manifest"
	"github.com/samcharles93/loom/pkg/wseg"
)

func packCmd() *cli.Command {
	var weightsPath string

	return &cli.Command{
		Name:  "pack",
		Usage: "Append a weights segment to a compiled artifact",
		Flags: append(commonArtifactFlags(), append(loggingFlags(),
			&cli.StringFlag{
				Name:        "weights",
				Aliases:     []string{"w"},
				Usage:       "path to the raw packed weights file",
				Destination: &weightsPath,
			})...),
		Action: func(ctx context.Context, c *cli.Command) error {
			applyCommonConfig(c, LoadConfig())
			log := newLogger()

			if manifestPath == "" || weightsPath == "" || artifactPath == "" {
				return cli.Exit("error: pack needs --manifest, --weights and --artifact", 1)
			}

			manData, err := os.ReadFile(manifestPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: read manifest: %v", err), 1)
			}
			man, err := manifest.Parse(manData)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			payload, err := os.ReadFile(weightsPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: read weights: %v", err), 1)
			}
			if got, want := uint64(len(payload)), man.TotalDataSize(); got != want {
				return cli.Exit(fmt.Sprintf("error: weights file holds %d bytes but the manifest constants sum to %d", got, want), 1)
			}

			f, err := os.OpenFile(artifactPath, os.O_RDWR, 0)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open artifact: %v", err), 1)
			}
			defer func() { _ = f.Close() }()

			hdr, err := wseg.Append(f, payload)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: append segment: %v", err), 1)
			}

			out := headerPath
			if out == "" {
				out = artifactPath + ".wseg"
			}
			if err := os.WriteFile(out, hdr.Encode(), 0o644); err != nil {
				return cli.Exit(fmt.Sprintf("error: write segment descriptor: %v", err), 1)
			}

			log.Info("weights segment appended",
				"artifact", artifactPath,
				"segment_size", humanize.IBytes(hdr.Size),
				"constants", len(man.Constants),
				"descriptor", out,
			)
			return nil
		},
	}
}
