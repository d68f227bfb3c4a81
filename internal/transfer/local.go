package transfer

import (
	"context"
	"fmt"
	"path/filepath"

	"dispatcher/internal/fileutil"
	"dispatcher/internal/services"
)

// Local relocates artifacts with plain filesystem operations. Destination
// paths use the same layout as the cloud client, rooted at a local directory
// instead of a bucket prefix.
type Local struct{}

// NewLocal constructs a filesystem transfer client.
func NewLocal() *Local { return &Local{} }

// Copy recursively copies src to dst.
func (Local) Copy(ctx context.Context, src, dst string, onLine func(string)) error {
	return localOp(ctx, "copy", src, dst, onLine, func() error {
		return fileutil.CopyTree(src, dst)
	})
}

// Move relocates src to dst and removes the source.
func (Local) Move(ctx context.Context, src, dst string, onLine func(string)) error {
	return localOp(ctx, "move", src, dst, onLine, func() error {
		return fileutil.MoveTree(src, dst)
	})
}

// CopyFile copies a single file.
func (Local) CopyFile(ctx context.Context, src, dst string, onLine func(string)) error {
	return localOp(ctx, "copy", src, dst, onLine, func() error {
		return fileutil.CopyFile(src, resolveFileDst(src, dst))
	})
}

// MoveFile moves a single file.
func (Local) MoveFile(ctx context.Context, src, dst string, onLine func(string)) error {
	return localOp(ctx, "move", src, dst, onLine, func() error {
		return fileutil.MoveTree(src, resolveFileDst(src, dst))
	})
}

// resolveFileDst mirrors the aws CLI convention of treating a trailing slash
// as a directory destination.
func resolveFileDst(src, dst string) string {
	if len(dst) > 0 && dst[len(dst)-1] == '/' {
		return filepath.Join(dst, filepath.Base(src))
	}
	return dst
}

func localOp(ctx context.Context, op, src, dst string, onLine func(string), fn func() error) error {
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrTransfer, "transfer", op, src, err)
	}
	if err := fn(); err != nil {
		return services.Wrap(services.ErrTransfer, "transfer", op, fmt.Sprintf("%s -> %s", src, dst), err)
	}
	if onLine != nil {
		onLine(fmt.Sprintf("%s: %s -> %s", op, src, dst))
	}
	return nil
}
