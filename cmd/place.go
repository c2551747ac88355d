package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/image-to-pdf/internal/config"
	"github.com/kozaktomas/image-to-pdf/internal/layout"
)

var placeCmd = &cobra.Command{
	Use:   "place <width> <height>",
	Short: "Show where an image of the given size lands on a page",
	Long: `Compute the placement of an image on a page: the image is scaled
uniformly to fit and centered. Sizes are in pixels, the result in points.

Example:
  image-to-pdf place 4000 3000
  image-to-pdf place 1080 1920 --page letter-landscape --json`,
	Args: cobra.ExactArgs(2),
	RunE: runPlace,
}

func init() {
	rootCmd.AddCommand(placeCmd)

	placeCmd.Flags().String("page", "", "Page preset (defaults to DOCUMENT_PAGE_SIZE or a4)")
	placeCmd.Flags().Bool("json", false, "Print the placement as JSON")
}

func runPlace(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	width, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid width %q: %w", args[0], err)
	}
	height, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid height %q: %w", args[1], err)
	}

	pageName := mustGetString(cmd, "page")
	if pageName == "" {
		pageName = cfg.Document.Page
	}
	page, err := cfg.PageSize(pageName)
	if err != nil {
		return err
	}

	p, err := layout.Place(width, height, page.Width, page.Height)
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Page      layout.PageSize  `json:"page"`
			Placement layout.Placement `json:"placement"`
		}{page, p})
	}

	fmt.Printf("Page:   %s\n", page)
	fmt.Printf("Offset: %.2f, %.2f pt\n", p.OffsetX, p.OffsetY)
	fmt.Printf("Size:   %.2f x %.2f pt (scale %.4f)\n", p.RenderWidth, p.RenderHeight, p.RenderWidth/width)
	return nil
}
