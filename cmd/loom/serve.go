package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/loom/internal/api"
	"github.com/samcharles93/loom/internal/device"
	"github.com/samcharles93/loom/internal/manifest"
	"github.com/samcharles93/loom/internal/rt"
	"github.com/samcharles93/loom/internal/tensor"
	"github.com/samcharles93/loom/internal/weights"
)

// stubBody stands in for the compiled kernel body, which only embedders
// link. The serve command exposes artifact metadata, it cannot execute.
type stubBody struct{}

func (stubBody) Run(_, _ []tensor.Handle, _ device.Stream, _ rt.ProxyExecutor) error {
	return errors.New("no compiled body linked into this binary")
}

func (stubBody) ConstFold(_ device.Stream, _ rt.ProxyExecutor, _ bool) (map[string]tensor.Handle, error) {
	return nil, errors.New("no compiled body linked into this binary")
}

func serveCmd() *cli.Command {
	var (
		weightsPath string
		addr        string
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve artifact metadata over HTTP",
		Flags: append(commonArtifactFlags(), append(loggingFlags(),
			&cli.StringFlag{
				Name:        "weights",
				Aliases:     []string{"w"},
				Usage:       "path to a raw packed weights file (alternative to --artifact/--header)",
				Destination: &weightsPath,
			},
			&cli.StringFlag{
				Name:        "device",
				Usage:       "device override, e.g. cpu or cuda:0",
				Destination: &deviceStr,
			},
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			})...),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := LoadConfig()
			applyCommonConfig(c, cfg)
			applyServeConfig(c, cfg, &addr)
			log := newLogger()

			if manifestPath == "" {
				return cli.Exit("error: serve needs --manifest", 1)
			}
			manData, err := os.ReadFile(manifestPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: read manifest: %v", err), 1)
			}
			man, err := manifest.Parse(manData)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			reg, err := man.Registry()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			var src weights.Source
			switch {
			case artifactPath != "" && headerPath != "":
				hdrData, err := os.ReadFile(headerPath)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: read segment descriptor: %v", err), 1)
				}
				src, err = weights.OpenAt(artifactPath, hdrData)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
			case weightsPath != "":
				raw, err := os.ReadFile(weightsPath)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: read weights: %v", err), 1)
				}
				src = weights.NewLinked(raw)
			default:
				return cli.Exit("error: serve needs either --artifact/--header or --weights", 1)
			}
			defer func() { _ = src.Close() }()

			dev := deviceStr
			if dev == "" {
				dev = man.Device
			}

			m, err := rt.New(rt.Config{
				Registry:    reg,
				Device:      dev,
				Source:      src,
				Tensors:     tensor.BlobFactory{},
				Body:        stubBody{},
				InputNames:  man.Inputs,
				OutputNames: man.Outputs,
				InSpec:      man.InSpec,
				OutSpec:     man.OutSpec,
				Logger:      log,
			})
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer func() { _ = m.Close() }()

			store := api.NewModelStore()
			store.Add(m, man)

			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			api.NewServer(store, log).Register(e)

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				if err := m.LoadConstants(); err != nil {
					return fmt.Errorf("load constants: %w", err)
				}
				log.Info("model loaded", "model_id", m.ID(), "device", m.Device(), "constants", m.NumConstants())
				return nil
			})
			g.Go(func() error {
				log.Info("starting server", "address", addr)
				sc := echo.StartConfig{
					Address: addr,
					BeforeServeFunc: func(srv *http.Server) error {
						srv.ReadHeaderTimeout = readTimeout
						return nil
					},
				}
				return sc.Start(ctx, e)
			})
			return g.Wait()
		},
	}
}
