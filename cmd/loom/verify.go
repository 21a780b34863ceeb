package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/loom/internal/manifest"
	"github.com/samcharles93/loom/internal/weights"
)

func verifyCmd() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Cross-check a manifest against the artifact's weights segment",
		Flags: append(commonArtifactFlags(), loggingFlags()...),
		Action: func(ctx context.Context, c *cli.Command) error {
			applyCommonConfig(c, LoadConfig())
			log := newLogger()

			if manifestPath == "" || artifactPath == "" || headerPath == "" {
				return cli.Exit("error: verify needs --manifest, --artifact and --header", 1)
			}

			manData, err := os.ReadFile(manifestPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: read manifest: %v", err), 1)
			}
			man, err := manifest.Parse(manData)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if _, err := man.Registry(); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			hdrData, err := os.ReadFile(headerPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: read segment descriptor: %v", err), 1)
			}
			src, err := weights.OpenAt(artifactPath, hdrData)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer func() { _ = src.Close() }()

			if got, want := uint64(len(src.Bytes())), man.TotalDataSize(); got != want {
				return cli.Exit(fmt.Sprintf("error: segment payload is %d bytes but the manifest constants sum to %d", got, want), 1)
			}

			log.Info("artifact verified",
				"artifact", artifactPath,
				"constants", len(man.Constants),
				"payload_bytes", len(src.Bytes()),
			)
			return nil
		},
	}
}
