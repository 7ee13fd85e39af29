package market

import (
	"fmt"
	"os"

	"github.com/xyproto/unzip"
)

// ExtractArchive unpacks a zipped dataset bundle into dir and returns dir.
// Dataset bundles are flat zip files of per-instrument CSVs.
func ExtractArchive(archive, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("market: create %s: %w", dir, err)
	}
	if err := unzip.Extract(archive, dir); err != nil {
		return "", fmt.Errorf("market: extract %s: %w", archive, err)
	}
	return dir, nil
}
