package umwelt

import (
	"path/filepath"
)

// Discover lays out the asset sources relative to root. Paths are not checked for existence
// here; the construct that consumes an asset fails synthesis when its source is missing.
func Discover(root string) ThisAssets {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	return ThisAssets{
		Root:      root,
		Handler:   filepath.Join(root, "dist", "handler"),
		Container: filepath.Join(root, "assets", "container"),
		Spark:     filepath.Join(root, "assets", "sparkimage"),
		Bootstrap: filepath.Join(root, "assets", "bootstrapscript", "emr_ssm.sh"),
	}
}
