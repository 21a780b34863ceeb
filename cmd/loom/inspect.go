package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/loom/internal/dtype"
	"github.com/samcharles93/loom/internal/manifest"
	"github.com/samcharles93/loom/internal/weights"
)

func inspectCmd() *cli.Command {
	var samples int64

	return &cli.Command{
		Name:  "inspect",
		Usage: "Print the constant table of a model manifest",
		Flags: append(commonArtifactFlags(), append(loggingFlags(),
			&cli.Int64Flag{
				Name:        "samples",
				Usage:       "decode this many leading elements of each float constant (needs --artifact and --header)",
				Destination: &samples,
			})...),
		Action: func(ctx context.Context, c *cli.Command) error {
			applyCommonConfig(c, LoadConfig())

			if manifestPath == "" {
				return cli.Exit("error: inspect needs --manifest", 1)
			}
			manData, err := os.ReadFile(manifestPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: read manifest: %v", err), 1)
			}
			man, err := manifest.Parse(manData)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			var seg []byte
			if artifactPath != "" && headerPath != "" {
				hdrData, err := os.ReadFile(headerPath)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: read segment descriptor: %v", err), 1)
				}
				src, err := weights.OpenAt(artifactPath, hdrData)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				defer func() { _ = src.Close() }()
				seg = src.Bytes()
			}

			writeConstantTable(os.Stdout, man, seg, int(samples))
			return nil
		},
	}
}

// writeConstantTable prints the manifest header and one line per constant,
// optionally followed by decoded sample values from the weights segment.
// Sampling stops if the declared sizes oversell the segment; the manifest
// is untrusted input, so the cursor never slices past the mapped bytes.
func writeConstantTable(w io.Writer, man *manifest.Manifest, seg []byte, samples int) {
	fmt.Fprintf(w, "device:    %s\n", man.Device)
	fmt.Fprintf(w, "inputs:    %v\n", man.Inputs)
	fmt.Fprintf(w, "outputs:   %v\n", man.Outputs)
	fmt.Fprintf(w, "constants: %d (%s)\n\n", len(man.Constants), humanize.IBytes(man.TotalDataSize()))

	var cursor uint64
	for _, cst := range man.Constants {
		fmt.Fprintf(w, "%-32s %-16s %-8s %v  %s\n",
			cst.Name, cst.Kind, cst.DType, cst.Shape, humanize.IBytes(cst.DataSize))

		end := cursor + cst.DataSize
		if seg != nil && (end < cursor || end > uint64(len(seg))) {
			fmt.Fprintf(w, "  (declared sizes exceed the %d-byte segment, sampling stopped)\n", len(seg))
			seg = nil
		}
		if seg != nil && samples > 0 {
			if dt, err := dtype.Parse(cst.DType); err == nil {
				if vals, err := dtype.DecodeF32(dt, seg[cursor:end], samples); err == nil {
					fmt.Fprintf(w, "  %v\n", vals)
				}
			}
		}
		cursor = end
	}
}
