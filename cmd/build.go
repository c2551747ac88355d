package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/image-to-pdf/internal/assembler"
	"github.com/kozaktomas/image-to-pdf/internal/compress"
	"github.com/kozaktomas/image-to-pdf/internal/config"
	"github.com/kozaktomas/image-to-pdf/internal/crop"
	"github.com/kozaktomas/image-to-pdf/internal/notify"
	"github.com/kozaktomas/image-to-pdf/internal/workspace"
)

var buildCmd = &cobra.Command{
	Use:   "build <file-or-folder> [file-or-folder...]",
	Short: "Convert images into a PDF",
	Long: `Convert images into a single PDF, one image per page in the given order.

Files are used in argument order, folders contribute their images sorted by
name. Use -r to search folders recursively.
Supported formats: jpg, jpeg, png, gif, webp, tiff, bmp

Edits are applied in this order before the document is built:
  --crop  N:x,y,w,h[,rotate]  crop image N (1-based) to a pixel rectangle,
                              optionally rotating it clockwise first
  --move  FROM:TO             move the image at position FROM to position TO
  --remove N                  drop image N (positions as after --move)

Example:
  image-to-pdf build scans/
  image-to-pdf build a.jpg b.png c.jpg --name holiday --page letter
  image-to-pdf build scans/ --crop 2:0,0,800,600 --move 3:1 -o out/report.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringP("output", "o", "", "Output file (defaults to the document name in the current directory)")
	buildCmd.Flags().String("name", "", "Document name (defaults to DOCUMENT_NAME or converted-images.pdf)")
	buildCmd.Flags().String("page", "", "Page preset, e.g. a4, letter, a4-landscape (defaults to DOCUMENT_PAGE_SIZE or a4)")
	buildCmd.Flags().StringArray("crop", nil, "Crop an image: N:x,y,w,h[,rotate] (repeatable)")
	buildCmd.Flags().StringArray("move", nil, "Move an image: FROM:TO (repeatable)")
	buildCmd.Flags().IntSlice("remove", nil, "Remove images by position")
	buildCmd.Flags().Bool("no-compress", false, "Keep the original image binaries")
	buildCmd.Flags().BoolP("recursive", "r", false, "Search folders recursively")
	buildCmd.Flags().Int("workers", 0, "Parallel compression workers (defaults to 4)")
}

// cropSpec is a parsed --crop value.
type cropSpec struct {
	Position int
	Request  crop.Request
}

// parseCropSpec parses "N:x,y,w,h[,rotate]".
func parseCropSpec(s string) (cropSpec, error) {
	pos, rect, ok := strings.Cut(s, ":")
	if !ok {
		return cropSpec{}, fmt.Errorf("invalid crop %q: expected N:x,y,w,h[,rotate]", s)
	}
	position, err := strconv.Atoi(strings.TrimSpace(pos))
	if err != nil || position < 1 {
		return cropSpec{}, fmt.Errorf("invalid crop %q: position must be a positive number", s)
	}

	parts := strings.Split(rect, ",")
	if len(parts) != 4 && len(parts) != 5 {
		return cropSpec{}, fmt.Errorf("invalid crop %q: expected 4 or 5 values after the position", s)
	}
	values := make([]int, len(parts))
	for i, p := range parts {
		if values[i], err = strconv.Atoi(strings.TrimSpace(p)); err != nil {
			return cropSpec{}, fmt.Errorf("invalid crop %q: %q is not a number", s, p)
		}
	}

	req := crop.Request{X: values[0], Y: values[1], Width: values[2], Height: values[3]}
	if len(values) == 5 {
		req.Rotate = float64(values[4])
	}
	return cropSpec{Position: position, Request: req}, nil
}

// parseMoveSpec parses "FROM:TO" into zero-based indices.
func parseMoveSpec(s string) (int, int, error) {
	from, to, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid move %q: expected FROM:TO", s)
	}
	f, err1 := strconv.Atoi(strings.TrimSpace(from))
	t, err2 := strconv.Atoi(strings.TrimSpace(to))
	if err1 != nil || err2 != nil || f < 1 || t < 1 {
		return 0, 0, fmt.Errorf("invalid move %q: positions must be positive numbers", s)
	}
	return f - 1, t - 1, nil
}

// progressCompressor advances a progress bar for every compressed image.
type progressCompressor struct {
	next workspace.Compressor
	bar  *progressbar.ProgressBar
}

func (p progressCompressor) Compress(data []byte) []byte {
	defer p.bar.Add(1)
	if p.next == nil {
		return data
	}
	return p.next.Compress(data)
}

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// readFiles loads every file into memory.
func readFiles(paths []string) ([][]byte, error) {
	out := make([][]byte, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		out = append(out, data)
	}
	return out, nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	crops := mustGetStringArray(cmd, "crop")
	moves := mustGetStringArray(cmd, "move")
	removals := mustGetIntSlice(cmd, "remove")

	pageName := mustGetString(cmd, "page")
	if pageName == "" {
		pageName = cfg.Document.Page
	}
	page, err := cfg.PageSize(pageName)
	if err != nil {
		return err
	}

	name := cfg.Document.Name
	if n := mustGetString(cmd, "name"); n != "" {
		if name, err = workspace.NormalizeDocumentName(n); err != nil {
			return err
		}
	}

	filePaths, err := collectImageFiles(args, mustGetBool(cmd, "recursive"))
	if err != nil {
		return err
	}
	if len(filePaths) == 0 {
		return errors.New("no image files found")
	}
	fmt.Printf("Found %d image(s)\n", len(filePaths))

	files, err := readFiles(filePaths)
	if err != nil {
		return err
	}

	var compressor workspace.Compressor
	if !mustGetBool(cmd, "no-compress") {
		compressor = compress.New(compress.Options{
			MaxBytes:     cfg.Compression.MaxBytes,
			MaxDimension: cfg.Compression.MaxDimension,
			Quality:      cfg.Compression.Quality,
		})
	}
	bar := newProgressBar(len(files), "Compressing")

	ws := workspace.New(workspace.Config{
		Compressor: progressCompressor{next: compressor, bar: bar},
		Cropper:    crop.New(crop.DefaultQuality),
		Builder:    assembler.New(assembler.WithCreator("image-to-pdf " + Version)),
		Page:       page,
		Name:       name,
		Workers:    mustGetInt(cmd, "workers"),
	})
	defer ws.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := ws.Dispatch(ctx, workspace.FilesReceived{Files: files})
	bar.Finish()
	fmt.Println()
	if err != nil {
		return fmt.Errorf("adding images: %w", err)
	}
	if skipped := len(files) - len(res.IDs); skipped > 0 {
		fmt.Printf("Skipped %d empty file(s)\n", skipped)
	}

	if err := applyEdits(ctx, ws, res.IDs, crops, moves, removals); err != nil {
		return err
	}

	res, err = ws.Dispatch(ctx, workspace.BuildRequested{})
	printNotices(ws.Notices())
	if err != nil {
		return fmt.Errorf("building document: %w", err)
	}
	doc := res.Document

	output := mustGetString(cmd, "output")
	if output == "" {
		output = doc.Name
	}
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(output, doc.Data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	fmt.Printf("Wrote %s: %d page(s) on %s", output, doc.PageCount, doc.Page)
	if len(doc.Failures) > 0 {
		fmt.Printf(", %d image(s) skipped", len(doc.Failures))
	}
	fmt.Println()
	return nil
}

// applyEdits runs the crop, move and remove flags against the workspace.
// Crop positions refer to the original order.
func applyEdits(ctx context.Context, ws *workspace.Workspace, ids []string, crops, moves []string, removals []int) error {
	for _, c := range crops {
		spec, err := parseCropSpec(c)
		if err != nil {
			return err
		}
		if spec.Position > len(ids) {
			return fmt.Errorf("crop %q: there are only %d images", c, len(ids))
		}
		if _, err := ws.Dispatch(ctx, workspace.CropConfirmed{EntryID: ids[spec.Position-1], Request: spec.Request}); err != nil {
			return fmt.Errorf("crop %q: %w", c, err)
		}
	}

	for _, m := range moves {
		from, to, err := parseMoveSpec(m)
		if err != nil {
			return err
		}
		if _, err := ws.Dispatch(ctx, workspace.ReorderConfirmed{OldIndex: from, NewIndex: to}); err != nil {
			return fmt.Errorf("move %q: %w", m, err)
		}
	}

	// Resolve positions before removing so later removals are not shifted.
	order := ws.Snapshot().IDs()
	for _, pos := range removals {
		if pos < 1 || pos > len(order) {
			return fmt.Errorf("remove %d: position out of range 1-%d", pos, len(order))
		}
	}
	for _, pos := range removals {
		if _, err := ws.Dispatch(ctx, workspace.RemoveRequested{EntryID: order[pos-1]}); err != nil {
			return fmt.Errorf("remove %d: %w", pos, err)
		}
	}
	return nil
}

func printNotices(notices []notify.Notice) {
	for _, n := range notices {
		if n.Level == notify.LevelSuccess {
			continue
		}
		fmt.Fprintf(os.Stderr, "%s: %s\n", n.Level, n.Message)
	}
}
