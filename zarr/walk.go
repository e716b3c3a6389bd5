package zarr

// WalkFunc is called for each collection during traversal. path is the
// collection's backing directory. Returning an error stops the walk.
type WalkFunc func(path string, c Collection, err error) error

// Walk traverses the collection tree rooted at c, calling fn for c itself
// and, depth first, for every descendant of each group.
//
// Example:
//
//	zarr.Walk(root, func(path string, c zarr.Collection, err error) error {
//	    if err != nil {
//	        return err
//	    }
//	    switch o := c.(type) {
//	    case *zarr.Group:
//	        fmt.Println("group:", path)
//	    case zarr.IArray:
//	        fmt.Println("array:", path, "shape:", o.Shape())
//	    }
//	    return nil
//	})
func Walk(c Collection, fn WalkFunc) error {
	if err := fn(c.Path(), c, nil); err != nil {
		return err
	}

	g, ok := c.(*Group)
	if !ok {
		return nil
	}
	for _, child := range g.Children() {
		if err := Walk(child, fn); err != nil {
			return err
		}
	}
	return nil
}
