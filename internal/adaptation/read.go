package adaptation

import (
	"fmt"
	"io"
	"os"

	"github.com/verte-zerg/aiprimer/internal/xmltree"
)

// Parse decodes an export document into a tree ready for Ingest.
func Parse(r io.Reader) (xmltree.Node, error) {
	tree, err := xmltree.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse adaptation export: %w", err)
	}
	return tree, nil
}

// ParseFile reads and decodes an export file.
func ParseFile(path string) (xmltree.Node, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only export.
			_ = cerr
		}
	}()
	return Parse(file)
}
