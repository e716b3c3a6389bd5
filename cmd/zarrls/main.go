// Command zarrls lists the contents of a Zarr v2 store: its groups,
// arrays, shapes, dtypes and attribute keys.
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-zarr/internal/dtype"
	"github.com/robert-malhotra/go-zarr/zarr"
)

func main() {
	root := &cobra.Command{
		Use:   "zarrls <directory>",
		Short: "List the arrays and groups of a Zarr v2 store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
		SilenceUsage: true,
	}
	root.SetOut(os.Stdout)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, dir string) error {
	c, err := zarr.OpenCollection(dir)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dir, err)
	}

	depths := map[string]int{c.Path(): 0}
	return zarr.Walk(c, func(path string, child zarr.Collection, err error) error {
		if err != nil {
			return err
		}

		depth := depths[path]
		indent := strings.Repeat("  ", depth)
		if g, ok := child.(*zarr.Group); ok {
			for _, sub := range g.Children() {
				depths[sub.Path()] = depth + 1
			}
			cmd.Printf("%s%s/  (group)%s\n", indent, child.Name(), attrSuffix(child))
			return nil
		}

		arr := child.(zarr.IArray)
		hdr := arr.Header()
		cmd.Printf("%s%s  shape=%v chunks=%v dtype=%s order=%s%s\n",
			indent, child.Name(), arr.Shape(), arr.ChunkShape(),
			dtype.Format(hdr.DataType, hdr.Endian), hdr.Order, attrSuffix(child))
		return nil
	})
}

// attrSuffix renders the attribute keys of a collection, if any.
func attrSuffix(c zarr.Collection) string {
	attrs := c.Attributes()
	if len(attrs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "  attrs=[" + strings.Join(keys, " ") + "]"
}
