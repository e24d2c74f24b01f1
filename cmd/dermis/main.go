// Command dermis transfers a per-vertex skin weight field from a
// source mesh to a differently-tessellated target mesh.
//
// Usage:
//
//	dermis -source src.obj -target dst.obj -out result.json [-weights w.json]
//	dermis -demo -out result.json
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/dermis3d/dermis/internal/config"
	"github.com/dermis3d/dermis/internal/logger"
	"github.com/dermis3d/dermis/pkg/inpaint"
	"github.com/dermis3d/dermis/pkg/kernel/sdfx"
	"github.com/dermis3d/dermis/pkg/mesh"
	"github.com/dermis3d/dermis/pkg/meshio"
	"github.com/dermis3d/dermis/pkg/transfer"
	"github.com/dermis3d/dermis/pkg/weights"
)

func main() {
	var (
		sourcePath = flag.String("source", "", "source mesh (OBJ)")
		targetPath = flag.String("target", "", "target mesh (OBJ)")
		weightPath = flag.String("weights", "", "source weights (JSON rows); demo weights when empty")
		outPath    = flag.String("out", "result.json", "output JSON path")
		configPath = flag.String("config", "", "optional YAML config")
		demo       = flag.Bool("demo", false, "generate procedural demo meshes instead of loading files")

		distanceFactor = flag.Float64("distance-factor", 0, "distance gate as a fraction of the target bbox diagonal")
		angleDeg       = flag.Float64("angle", 0, "normal angle gate in degrees")
		smoothIters    = flag.Int("smooth-iters", -1, "smoothing iterations")
		smoothAlpha    = flag.Float64("alpha", 0, "smoothing relaxation factor")
		workers        = flag.Int("workers", 0, "matcher worker count (0 = all CPUs)")
		solverName     = flag.String("solver", "", "inpaint solver: cg or dense")
		weighting      = flag.String("weighting", "", "laplacian weighting: cotangent or uniform")
		logLevel       = flag.String("log-level", "", "log level: debug, info, warn, error")
		logFile        = flag.String("log-file", "", "optional log file (rotated)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	// Flags beat the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "distance-factor":
			cfg.Transfer.DistanceFactor = *distanceFactor
		case "angle":
			cfg.Transfer.AngleDeg = *angleDeg
		case "smooth-iters":
			cfg.Transfer.SmoothIterations = *smoothIters
		case "alpha":
			cfg.Transfer.SmoothAlpha = *smoothAlpha
		case "workers":
			cfg.Transfer.Workers = *workers
		case "solver":
			cfg.Transfer.Solver = *solverName
		case "weighting":
			cfg.Transfer.Weighting = *weighting
		case "log-level":
			cfg.Logging.Level = *logLevel
		case "log-file":
			cfg.Logging.LogFile = *logFile
		}
	})

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync()

	if err := run(cfg, *sourcePath, *targetPath, *weightPath, *outPath, *demo); err != nil {
		var unanchored *inpaint.UnanchoredComponentError
		if errors.As(err, &unanchored) {
			logger.Log.Error("inpainting failed: target has a region with no usable correspondence; consider relaxing -distance-factor or -angle",
				zap.Int("component", unanchored.Component),
				zap.Int("vertices", unanchored.Vertices))
		} else {
			logger.Log.Error("transfer failed", zap.Error(err))
		}
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, sourcePath, targetPath, weightPath, outPath string, demo bool) error {
	var (
		src, dst *mesh.Mesh
		srcW     *weights.Field
		err      error
	)
	if demo {
		src, dst, srcW, err = demoScene()
	} else {
		src, dst, srcW, err = loadScene(sourcePath, targetPath, weightPath)
	}
	if err != nil {
		return err
	}
	logger.Log.Info("meshes ready",
		zap.Int("sourceVertices", src.VertexCount()),
		zap.Int("sourceTriangles", src.TriangleCount()),
		zap.Int("targetVertices", dst.VertexCount()),
		zap.Int("targetTriangles", dst.TriangleCount()),
		zap.Int("channels", srcW.Channels()))

	opts := pipelineOptions(cfg, dst)

	start := time.Now()
	res, err := transfer.Transfer(src, srcW, dst, opts)
	if err != nil {
		return err
	}
	logger.Log.Info("transfer complete",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("matched", res.MatchedCount()),
		zap.Int("total", dst.VertexCount()))

	if err := meshio.WriteJSON(outPath, dst, res.Weights, res.Matched, res.SmoothedMask); err != nil {
		return err
	}
	logger.Log.Info("wrote result", zap.String("path", outPath))
	return nil
}

func pipelineOptions(cfg *config.Config, dst *mesh.Mesh) transfer.Options {
	opts := transfer.DefaultOptions(dst)
	d := cfg.Transfer.DistanceFactor * dst.BoundingBoxDiagonal()
	opts.MaxSquaredDistance = d * d
	opts.SmoothDistance = d
	opts.MaxNormalAngleDeg = cfg.Transfer.AngleDeg
	opts.SmoothIterations = cfg.Transfer.SmoothIterations
	opts.SmoothAlpha = cfg.Transfer.SmoothAlpha
	opts.Workers = cfg.Transfer.Workers
	if cfg.Transfer.Weighting == "uniform" {
		opts.Weighting = inpaint.WeightingUniform
	}
	if cfg.Transfer.Solver == "dense" {
		opts.Solver = inpaint.DenseSolver{}
	}
	return opts
}

func loadScene(sourcePath, targetPath, weightPath string) (*mesh.Mesh, *mesh.Mesh, *weights.Field, error) {
	if sourcePath == "" || targetPath == "" {
		return nil, nil, nil, fmt.Errorf("need -source and -target (or -demo)")
	}
	src, err := meshio.LoadOBJ(sourcePath)
	if err != nil {
		return nil, nil, nil, err
	}
	dst, err := meshio.LoadOBJ(targetPath)
	if err != nil {
		return nil, nil, nil, err
	}
	var srcW *weights.Field
	if weightPath != "" {
		srcW, err = meshio.ReadWeightsJSON(weightPath)
		if err != nil {
			return nil, nil, nil, err
		}
		if srcW.Len() != src.VertexCount() {
			return nil, nil, nil, fmt.Errorf("%s: %d weight rows for %d source vertices", weightPath, srcW.Len(), src.VertexCount())
		}
	} else {
		// The two-bone demo rig: constant 0.3/0.7 influence.
		srcW = demoWeights(src.VertexCount())
	}
	return src, dst, srcW, nil
}

// demoScene builds a coarse and a fine tessellation of the same solid,
// so every target vertex should find a match.
func demoScene() (*mesh.Mesh, *mesh.Mesh, *weights.Field, error) {
	k := sdfx.New()
	// A box with a cylindrical bore, so the demo surface has both flat
	// and curved regions.
	solid := k.Difference(k.Box(1, 1, 1), k.Cylinder(1.5, 0.25))
	src, err := k.ToMesh(solid, 24)
	if err != nil {
		return nil, nil, nil, err
	}
	dst, err := k.ToMesh(solid, 64)
	if err != nil {
		return nil, nil, nil, err
	}
	return src, dst, demoWeights(src.VertexCount()), nil
}

func demoWeights(n int) *weights.Field {
	w := weights.NewField(n, 2)
	for i := 0; i < n; i++ {
		w.SetRow(i, []float64{0.3, 0.7})
	}
	return w
}
