package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	circlecrop "github.com/menta2k/circle-crop"
	"github.com/menta2k/circle-crop/internal/config"
	"github.com/menta2k/circle-crop/internal/utils"
	"github.com/menta2k/circle-crop/pkg/export"
	"github.com/menta2k/circle-crop/pkg/removal"
)

func main() {
	var in, outDir, formats string
	var zoom, panX, panY, rotate float64
	var edge int
	var video bool

	var removeBG bool
	var backend, url, model, apiKey string

	flag.StringVar(&in, "in", "", "input image or video path (jpg/png/webp/gif/mp4/...)")
	flag.StringVar(&outDir, "out", "out", "output directory")
	flag.StringVar(&formats, "formats", "png", "comma-separated exports: png|jpg|webp|svg|avi")

	flag.Float64Var(&zoom, "zoom", 0, "zoom factor (0 keeps the auto-fit)")
	flag.Float64Var(&panX, "panx", 0, "horizontal pan in preview pixels")
	flag.Float64Var(&panY, "pany", 0, "vertical pan in preview pixels")
	flag.Float64Var(&rotate, "rotate", 0, "rotation in degrees (-180..180)")
	flag.IntVar(&edge, "edge", 0, "still export edge in pixels (0 keeps the default)")
	flag.BoolVar(&video, "video", false, "force video decoding regardless of extension")

	flag.BoolVar(&removeBG, "removebg", false, "run background removal on the final artifact")
	flag.StringVar(&backend, "backend", "ollama", "removal backend: ollama or rest")
	flag.StringVar(&url, "url", "", "removal server URL (default from config/env)")
	flag.StringVar(&model, "model", "", "removal model name (default from config)")
	flag.StringVar(&apiKey, "apikey", "", "bearer credential for the rest backend")

	flag.Parse()
	if in == "" {
		log.Fatalf("usage: %s -in photo.jpg [-formats png,jpg,svg] [-zoom 1.5] [-panx 40] [-rotate -10] [-out outdir] [-removebg]", filepath.Base(os.Args[0]))
	}

	cfg := config.FromEnv()
	if edge > 0 {
		cfg.Export.Edge = edge
	}
	if url != "" {
		cfg.Removal.BaseURL = url
	}
	if model != "" {
		cfg.Removal.Model = model
	}
	if apiKey != "" {
		cfg.Removal.APIKey = apiKey
	}

	session, err := circlecrop.NewWithConfig(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer session.Close()

	// Load input media
	if video || utils.IsVideoFile(in) {
		err = session.LoadVideo(in)
	} else {
		err = session.LoadImageFile(in)
	}
	if err != nil {
		log.Fatal(err)
	}

	// Apply framing on top of the auto-fit
	ctrl := session.Controller()
	if panX != 0 || panY != 0 {
		start := float64(cfg.Preview.CanvasEdge) / 2
		ctrl.PointerDown(start, start)
		ctrl.PointerMove(start+panX, start+panY)
		ctrl.PointerUp()
	}
	if zoom > 0 {
		ctrl.SetZoom(zoom)
	}
	if rotate != 0 {
		ctrl.SetRotation(rotate)
	}

	st := session.Transform()
	log.Printf("framing: zoom=%.3f pan=(%.0f,%.0f) rotation=%.1f video=%v",
		st.Zoom, st.PanX, st.PanY, st.RotationDegrees, session.IsVideo())

	ctx := context.Background()

	// Export each requested format and save it as it completes
	for _, f := range strings.Split(formats, ",") {
		var artifact *export.Artifact
		var err error

		switch strings.TrimSpace(strings.ToLower(f)) {
		case "png":
			artifact, err = session.ExportPNG(ctx)
		case "jpg", "jpeg":
			artifact, err = session.ExportJPEG(ctx)
		case "webp":
			artifact, err = session.ExportWebP(ctx)
		case "svg":
			artifact, err = session.ExportSVG(ctx)
		case "avi", "animation":
			lastDecile := -1
			artifact, err = session.CaptureAnimation(ctx, func(p float64) {
				if d := int(p) / 10; d > lastDecile {
					lastDecile = d
					log.Printf("capture %3.0f%%", p)
				}
			})
		case "":
			continue
		default:
			log.Printf("skipping unknown format %q", f)
			continue
		}
		if err != nil {
			log.Printf("export %s failed: %v", f, err)
			continue
		}

		path, err := session.SaveArtifact(outDir)
		if err != nil {
			log.Printf("save %s failed: %v", artifact.Name, err)
			continue
		}
		log.Printf("wrote %s (%s)", path, utils.FormatFileSize(int64(artifact.Size())))
	}

	// Optionally strip the background from the last artifact
	if removeBG {
		var client removal.Client
		switch backend {
		case "ollama":
			client, err = removal.NewOllamaClient(cfg.Removal.BaseURL, cfg.Removal.Model, cfg.Removal.Timeout)
		case "rest":
			client, err = removal.NewRESTClient(cfg.Removal.BaseURL, cfg.Removal.APIKey, cfg.Removal.Model)
		default:
			log.Fatalf("unknown backend: %s (use 'ollama' or 'rest')", backend)
		}
		if err != nil {
			log.Fatalf("failed to create %s client: %v", backend, err)
		}
		session.SetRemovalClient(client)

		if err := session.RemoveBackground(ctx); err != nil {
			log.Fatalf("background removal failed: %v", err)
		}
		path, err := session.SaveArtifact(outDir)
		if err != nil {
			log.Fatalf("save after removal failed: %v", err)
		}
		log.Printf("rewrote %s with background removed", path)
	}
}
