package jsonfs

import (
	"context"
	"errors"
	"path"
	"strings"

	"famorg/application/ports"
	"famorg/domain/core/entities"
	pkgerrors "famorg/pkg/errors"

	"github.com/hack-pad/hackpadfs"
	"go.uber.org/zap"
)

// Scanner walks the knowledge root and mirrors it as a category tree.
// It reads the live filesystem on every call; caching is a separate concern
// (see cache.TreeCache).
type Scanner struct {
	store     *Store
	imagesDir string
	logger    *zap.Logger
}

var _ ports.TreeScanner = (*Scanner)(nil)

// NewScanner creates a scanner over the store's filesystem.
// imagesDir names the reserved top-level directory that is never scanned.
func NewScanner(store *Store, imagesDir string, logger *zap.Logger) *Scanner {
	return &Scanner{
		store:     store,
		imagesDir: imagesDir,
		logger:    logger,
	}
}

// Scan returns one category node per directory directly under the root.
// Files at the root level are not part of any category and are ignored.
func (s *Scanner) Scan(ctx context.Context) ([]*entities.TreeNode, error) {
	entries, err := hackpadfs.ReadDir(s.store.FS(), ".")
	if err != nil {
		if errors.Is(err, hackpadfs.ErrNotExist) {
			return []*entities.TreeNode{}, nil
		}
		return nil, pkgerrors.NewIOError("scan knowledge root", err)
	}

	roots := make([]*entities.TreeNode, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == s.imagesDir || hidden(entry.Name()) {
			continue
		}
		node, err := s.scanDir(ctx, entry.Name(), entry.Name())
		if err != nil {
			return nil, err
		}
		roots = append(roots, node)
	}
	return roots, nil
}

func (s *Scanner) scanDir(ctx context.Context, name, dir string) (*entities.TreeNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	node := entities.NewCategoryNode(name, dir)

	entries, err := hackpadfs.ReadDir(s.store.FS(), dir)
	if err != nil {
		s.logger.Warn("Failed to list category, showing it empty",
			zap.String("path", dir),
			zap.Error(err),
		)
		return node, nil
	}

	for _, entry := range entries {
		entryName := entry.Name()
		if hidden(entryName) {
			continue
		}
		childPath := path.Join(dir, entryName)

		switch {
		case entry.IsDir():
			child, err := s.scanDir(ctx, entryName, childPath)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)

		case strings.HasSuffix(entryName, documentExt):
			leafPath := strings.TrimSuffix(childPath, documentExt)
			node.Children = append(node.Children, entities.NewFileNode(
				strings.TrimSuffix(entryName, documentExt),
				leafPath,
				s.readItems(ctx, leafPath),
			))
		}
	}
	return node, nil
}

// readItems never fails: a missing or corrupt leaf shows up empty and the
// problem is reported to the operator log.
func (s *Scanner) readItems(ctx context.Context, leafPath string) []*entities.KnowledgeItem {
	var doc entities.LeafDocument
	if _, err := s.store.Load(ctx, leafPath, &doc); err != nil {
		s.logger.Warn("Skipping unreadable knowledge file",
			zap.String("path", leafPath),
			zap.Bool("corrupt", pkgerrors.IsCorruptDocument(err)),
			zap.Error(err),
		)
		return []*entities.KnowledgeItem{}
	}
	doc.Normalize()
	return doc.Items
}

// hidden filters dotfiles, which include in-flight temporary writes
func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
