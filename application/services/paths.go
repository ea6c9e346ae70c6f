package services

import (
	"fmt"

	"famorg/domain/config"
	"famorg/domain/core/valueobjects"
	pkgerrors "famorg/pkg/errors"
)

// checkVisible rejects paths the tree scan would never show: anything under
// the reserved images directory.
func checkVisible(path valueobjects.ResourcePath, domainCfg *config.DomainConfig) error {
	if path.Root() == domainCfg.ImagesDir {
		return pkgerrors.NewValidationError(
			fmt.Sprintf("'%s' is reserved for images", domainCfg.ImagesDir))
	}
	return nil
}

// parseLeafPath validates a knowledge file path. Leaves live inside a
// category, so a root-level path is rejected.
func parseLeafPath(raw string, domainCfg *config.DomainConfig) (valueobjects.ResourcePath, error) {
	path, err := valueobjects.NewResourcePath(raw)
	if err != nil {
		return valueobjects.ResourcePath{}, err
	}
	if path.Depth() < 2 {
		return valueobjects.ResourcePath{}, pkgerrors.NewValidationError(
			fmt.Sprintf("knowledge file '%s' must be inside a category", path.String()))
	}
	if err := checkVisible(path, domainCfg); err != nil {
		return valueobjects.ResourcePath{}, err
	}
	return path, nil
}
