package main

import (
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"webcamdetect/internal/app"
	"webcamdetect/internal/camera"
	"webcamdetect/internal/config"
	"webcamdetect/internal/cv"
	"webcamdetect/internal/logger"
)

func main() {
	cliApp := &cli.App{
		Name:   "detect",
		Usage:  "run live object detection on a webcam feed",
		Flags:  flags(),
		Action: run,
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatalf("detect: %v", err)
	}
}

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{Name: "env-file", Usage: "env files to load before reading the environment", Value: cli.NewStringSlice(".env")},
		&cli.StringFlag{Name: "model", Usage: "path to the YOLOv8 ONNX weights"},
		&cli.IntSliceFlag{Name: "camera", Usage: "camera indices to try, in order"},
		&cli.StringFlag{Name: "backend", Usage: "capture backend: auto, any, dshow, v4l2, avfoundation"},
		&cli.StringFlag{Name: "log-dir", Usage: "also write logs to this directory"},
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.StringSlice("env-file")...)
	if err != nil {
		return err
	}
	if err := applyFlags(c, cfg); err != nil {
		return err
	}

	lg, err := logger.NewLogger(cfg.LogDirectory)
	if err != nil {
		return err
	}
	defer lg.Close()

	pipeline, freeFrame := cv.NewPipeline(cfg, lg)
	defer freeFrame()

	res, err := app.NewApp(cfg, lg, pipeline).Run()
	if errors.Is(err, camera.ErrCameraUnavailable) {
		// Already reported; nothing was opened.
		return nil
	}
	if err != nil {
		return err
	}

	lg.Info("Done: %d frame(s) from camera %d", res.Frames, res.CameraIndex)
	return nil
}

// applyFlags overrides cfg with every flag given on the command line.
func applyFlags(c *cli.Context, cfg *config.Config) error {
	if c.IsSet("model") {
		cfg.ModelPath = c.String("model")
	}
	if c.IsSet("camera") {
		cfg.CameraIndices = c.IntSlice("camera")
	}
	if c.IsSet("backend") {
		b, err := config.ParseBackend(c.String("backend"))
		if err != nil {
			return err
		}
		cfg.CameraBackend = b
	}
	if c.IsSet("log-dir") {
		cfg.LogDirectory = c.String("log-dir")
	}
	return nil
}
