package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/spaghettifunk/anima-assets/engine/assets"
	"github.com/spaghettifunk/anima-assets/engine/resources"
)

const dataFlag = "data"

func newLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <src>...",
		Short: "Load assets and print a summary of each",
		Example: `  anima-assets load img/hero.png sheets/hero.json
  anima-assets load --data mipmap=off --data alpha_mode=premultiplied textures/sky.ktx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromFlags(cmd)
			if err != nil {
				return err
			}
			e, err := startEngine(cfg)
			if err != nil {
				return err
			}
			defer e.Shutdown()

			data, _ := cmd.Flags().GetStringToString(dataFlag)
			md := make(assets.Metadata, len(data))
			for k, v := range data {
				md[k] = v
			}
			reqs := make([]assets.Request, 0, len(args))
			for _, src := range args {
				reqs = append(reqs, assets.NewRequest(src, md))
			}

			v, err := e.Load(cmd.Context(), reqs)
			if out, ok := v.(map[string]any); ok {
				printSummary(cmd.OutOrStdout(), out)
			}
			return err
		},
	}
	cmd.Flags().StringToString(dataFlag, nil, `Metadata handed to the parsers of every identifier, e.g. --data mipmap=off.`)
	return cmd
}

func printSummary(w io.Writer, loaded map[string]any) {
	srcs := make([]string, 0, len(loaded))
	for src := range loaded {
		srcs = append(srcs, src)
	}
	sort.Strings(srcs)
	for _, src := range srcs {
		fmt.Fprintf(w, "%s\t%s\n", src, describe(loaded[src]))
	}
}

// describe returns a one line summary of a loaded asset.
func describe(v any) string {
	switch a := v.(type) {
	case nil:
		return "unavailable"
	case *resources.Texture:
		if a.Base.Compressed() {
			return fmt.Sprintf("compressed texture %dx%d, %d levels", a.Width(), a.Height(), len(a.Base.Levels))
		}
		return fmt.Sprintf("texture %dx%d", a.Width(), a.Height())
	case resources.Group:
		return fmt.Sprintf("group of %d", len(a))
	case *resources.Spritesheet:
		return fmt.Sprintf("spritesheet with %d frames", len(a.Textures))
	case *resources.FontFace:
		return fmt.Sprintf("font face %s (%s)", a.Family, a.Weight)
	case *resources.BitmapFont:
		return fmt.Sprintf("bitmap font %s, %d glyphs, %d pages", a.Face, len(a.Glyphs), len(a.Pages))
	case *resources.SystemFont:
		return fmt.Sprintf("system font with %d faces", len(a.Faces))
	case *resources.Bytecode:
		return fmt.Sprintf("bytecode, %d words (%s)", len(a.Words), a.MIME)
	case map[string]any:
		return fmt.Sprintf("document with %d keys", len(a))
	case []any:
		return fmt.Sprintf("document with %d items", len(a))
	default:
		return fmt.Sprintf("%T", v)
	}
}
