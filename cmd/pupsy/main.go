package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pupsyengine/pupsy/internal/config"
	"github.com/pupsyengine/pupsy/internal/engine"
	"github.com/pupsyengine/pupsy/internal/logging"
	"github.com/pupsyengine/pupsy/internal/mesh"
)

func init() {
	// SDL and surface creation must stay on the main thread
	runtime.LockOSThread()
}

func main() {
	if err := newRootCommand(config.New()).Execute(); err != nil {
		slog.Error("pupsy failed", "error", fmt.Sprintf("%+v", err))
		os.Exit(1)
	}
}

// flagBindings maps config keys to the flags that override them.
var flagBindings = map[string]string{
	"window.title":                "title",
	"window.width":                "width",
	"window.height":               "height",
	"window.resizable":            "resizable",
	"engine.name":                 "engine-name",
	"engine.version":              "engine-version",
	"render.validation":           "validation",
	"render.validation_layers":    "validation-layer",
	"render.max_frames_in_flight": "frames-in-flight",
	"render.present_mode":         "present-mode",
	"render.clear_color":          "clear-color",
	"render.shader_dir":           "shader-dir",
	"render.mesh":                 "mesh",
	"render.pipeline_cache":       "pipeline-cache",
	"ui.enabled":                  "ui",
	"ui.fonts":                    "font",
	"ui.font_size":                "font-size",
	"log.level":                   "log-level",
	"log.format":                  "log-format",
	"fps.report_interval":         "fps-interval",
}

type options struct {
	configPath string
	mtlPath    string
}

func newRootCommand(v *viper.Viper) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "pupsy",
		Short:         "Draw a triangle with Vulkan",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "TOML config file (default ./pupsy.toml)")
	flags.StringVar(&opts.mtlPath, "mtl", "", "material library for --mesh")

	flags.String("title", "", "window title")
	flags.Int("width", 0, "window width")
	flags.Int("height", 0, "window height")
	flags.Bool("resizable", true, "allow the window to be resized")
	flags.String("engine-name", "", "engine name reported to the driver")
	flags.String("engine-version", "", "application version as major.minor.patch")
	flags.Bool("validation", true, "enable Vulkan validation layers")
	flags.StringSlice("validation-layer", nil, "validation layer to enable (repeatable)")
	flags.Int("frames-in-flight", 0, "maximum frames in flight")
	flags.String("present-mode", "", "preferred present mode (mailbox, fifo, immediate)")
	flags.StringSlice("clear-color", nil, "clear color as r,g,b,a")
	flags.String("shader-dir", "", "directory holding compiled SPIR-V shaders")
	flags.String("mesh", "", "Wavefront OBJ file to draw instead of the triangle")
	flags.String("pipeline-cache", "", "file used to persist the pipeline cache")
	flags.Bool("ui", false, "enable the ImGui overlay")
	flags.StringSlice("font", nil, "TTF font for the overlay (repeatable)")
	flags.Float32("font-size", 0, "overlay font size in pixels")
	flags.Duration("fps-interval", 0, "frame rate report interval, 0 disables")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (text, json)")

	for key, name := range flagBindings {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	return cmd
}

func run(ctx context.Context, v *viper.Viper, opts *options) error {
	if err := config.ReadFile(v, opts.configPath); err != nil {
		return err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	logger, err := logging.Setup(os.Stderr, cfg.Log)
	if err != nil {
		return err
	}
	if used := v.ConfigFileUsed(); used != "" {
		logger.Info("loaded config", "path", used)
	}

	geometry, err := loadGeometry(cfg.Render.MeshPath, opts.mtlPath)
	if err != nil {
		return err
	}

	e, err := engine.New(logger, cfg, geometry)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	return e.Run(ctx)
}

func loadGeometry(meshPath, mtlPath string) (mesh.Mesh, error) {
	if meshPath == "" {
		if mtlPath != "" {
			return mesh.Mesh{}, errors.New("--mtl requires --mesh")
		}
		return mesh.Triangle(), nil
	}

	return mesh.LoadOBJ(meshPath, mtlPath)
}
