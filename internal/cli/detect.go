package cli

import (
	"encoding/json"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ironsheep/hough-tools-mcp/internal/detection"
	"github.com/ironsheep/hough-tools-mcp/internal/imaging"
)

// imageExts lists the file extensions detect picks up when walking a
// directory.
var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// Stage image names written by detect for every input.
const (
	edgesFile    = "edges.png"
	houghFile    = "hough.png"
	linesFile    = "lines.png"
	segmentsFile = "segments.png"
	summaryFile  = "summary.json"
)

type detectOptions struct {
	out    string
	labels bool
}

func newDetectCmd() *cobra.Command {
	opts := detectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <file|dir>...",
		Short: "Detect lines in images and write every pipeline stage",
		Long: `Detect lines in images and write every pipeline stage.

For each input image a directory <out>/<name>/ is created holding:
  edges.png      linked Canny edge map
  hough.png      Hough accumulator (rows are rho bins, columns theta bins)
  lines.png      detected lines drawn across the image
  segments.png   detected segments
  summary.json   lines, segments and accumulator metadata

Directories are searched recursively for .png, .jpg, .jpeg and .gif files.
<name> is the image path relative to the searched directory without its
extension, so sub/img.png writes to <out>/sub/img/.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			cfg := configFromContext(ctx)

			images, err := collectImages(args)
			if err != nil {
				return err
			}
			if len(images) == 0 {
				return fmt.Errorf("no images found in %s", strings.Join(args, ", "))
			}

			prog := newProgress(logger)
			runner := detection.NewRunner(logger)
			for _, in := range images {
				if err := ctx.Err(); err != nil {
					return err
				}
				dir, err := detectFile(runner, in, cfg.Pipeline, opts)
				if err != nil {
					return fmt.Errorf("%s: %w", in.path, err)
				}
				logger.Info("wrote stages", "image", in.path, "dir", dir)
			}
			prog.done(fmt.Sprintf("Processed %d images", len(images)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "out", "output directory")
	cmd.Flags().BoolVar(&opts.labels, "labels", true, "number lines and segments in overlays")
	return cmd
}

// inputImage is one image picked up by detect and the output directory,
// relative to --out, that receives its stages.
type inputImage struct {
	path string
	name string
}

// collectImages expands args into a sorted, de-duplicated list of image
// files. Files named explicitly are kept regardless of extension.
//
// Images found by walking a directory are named by their path relative to
// that directory, so a/img.png and b/img.png land in out/a/img and
// out/b/img. Names that still collide get a numeric suffix.
func collectImages(args []string) ([]inputImage, error) {
	seen := make(map[string]bool)
	var images []inputImage
	add := func(p, rel string) {
		if !seen[p] {
			seen[p] = true
			images = append(images, inputImage{path: p, name: strings.TrimSuffix(rel, filepath.Ext(rel))})
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(arg, filepath.Base(arg))
			continue
		}
		err = filepath.WalkDir(arg, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !imageExts[strings.ToLower(filepath.Ext(p))] {
				return nil
			}
			rel, err := filepath.Rel(arg, p)
			if err != nil {
				return err
			}
			add(p, rel)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(images, func(i, j int) bool { return images[i].path < images[j].path })

	used := make(map[string]bool, len(images))
	for i := range images {
		name := images[i].name
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s_%d", images[i].name, n)
		}
		used[name] = true
		images[i].name = name
	}
	return images, nil
}

// detectFile runs the pipeline on one image and writes its stage images
// into <out>/<in.name>. It returns that directory.
func detectFile(runner *detection.Runner, in inputImage, p detection.Params, opts detectOptions) (string, error) {
	path := in.path
	img, err := imgio.Open(path)
	if err != nil {
		return "", err
	}

	runner.Logger.Debug("running pipeline", "image", path, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	res, err := runner.Run(imaging.ToGray(img), p)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(opts.out, in.name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	stages, err := renderStages(img, res, opts.labels)
	if err != nil {
		return "", err
	}
	for file, stage := range stages {
		if err := imgio.Save(filepath.Join(dir, file), stage, imgio.PNGEncoder()); err != nil {
			return "", fmt.Errorf("save %s: %w", file, err)
		}
	}

	summary, err := json.MarshalIndent(res.Summary(), "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, summaryFile), summary, 0o644); err != nil {
		return "", err
	}

	logStages(runner.Logger, res)
	return dir, nil
}

// renderStages draws the stage images of res keyed by output file name.
func renderStages(src image.Image, res *detection.Result, labels bool) (map[string]image.Image, error) {
	acc := res.Accumulator
	hough, err := imaging.CountsImage(acc.Votes, acc.RhoRes, acc.ThetaRes, 0, 0)
	if err != nil {
		return nil, err
	}

	w, h := res.Edges.Width, res.Edges.Height
	lines, err := imaging.Overlay(src, detection.LineStrokes(res.Lines, w, h), imaging.OverlayOptions{Labels: labels})
	if err != nil {
		return nil, err
	}
	segments, err := imaging.Overlay(src, detection.SegmentStrokes(res.Segments), imaging.OverlayOptions{Labels: labels, Thickness: 2})
	if err != nil {
		return nil, err
	}

	return map[string]image.Image{
		edgesFile:    res.Edges.Image(),
		houghFile:    hough,
		linesFile:    lines,
		segmentsFile: segments,
	}, nil
}

func logStages(logger *log.Logger, res *detection.Result) {
	for i, l := range res.Lines {
		logger.Debug("line", "rank", i+1, "rho", l.Rho, "theta_deg", l.ThetaDegrees, "votes", l.Votes)
	}
	for i, s := range res.Segments {
		logger.Debug("segment", "n", i+1, "start", fmt.Sprintf("(%.1f,%.1f)", s.Start.X, s.Start.Y),
			"end", fmt.Sprintf("(%.1f,%.1f)", s.End.X, s.End.Y), "length", s.Length())
	}
}
