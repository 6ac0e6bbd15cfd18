package xsource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/omeyang/xprops/pkg/props/xtable"
)

// FileProvider 加载本地文件源。
type FileProvider struct{}

// NewFileProvider 创建文件 Provider。
func NewFileProvider() *FileProvider {
	return &FileProvider{}
}

// Schemes 实现 Provider。
func (p *FileProvider) Schemes() []string {
	return []string{SchemeFile}
}

// Load 读取并按格式解码文件内容。
func (p *FileProvider) Load(_ context.Context, spec *Spec) (*xtable.Table, error) {
	data, err := os.ReadFile(spec.Target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: file %q", ErrSourceNotFound, spec.Target)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: file %q: %w", ErrSourceLoad, spec.Target, err)
	}
	tbl, err := Decode(data, spec.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: file %q: %w", ErrSourceLoad, spec.Target, err)
	}
	return tbl, nil
}

// Stamp 返回 "mtime:size" 印章，文件被改写时必然变化。
func (p *FileProvider) Stamp(_ context.Context, spec *Spec) (string, error) {
	fi, err := os.Stat(spec.Target)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: file %q", ErrSourceNotFound, spec.Target)
	}
	if err != nil {
		return "", fmt.Errorf("%w: file %q: %w", ErrSourceLoad, spec.Target, err)
	}
	return fmt.Sprintf("%d:%d", fi.ModTime().UnixNano(), fi.Size()), nil
}
