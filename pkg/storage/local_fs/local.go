// Package local_fs 本地目录中的对象删除
package local_fs

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

type Config struct {
	SavePath   string `yaml:"save-path" default:"storage/uploads"`
	CustomPath string `yaml:"custom-path"`
}

type LocalFS struct {
	Config *Config
	root   string
}

func NewClient(conf *Config) (*LocalFS, error) {
	if conf.SavePath == "" {
		return nil, errors.New("local_fs: save-path is required")
	}
	root, err := filepath.Abs(filepath.Join(conf.SavePath, conf.CustomPath))
	if err != nil {
		return nil, errors.Wrap(err, "local_fs")
	}
	return &LocalFS{Config: conf, root: root}, nil
}

func (p *LocalFS) Name() string {
	return "localfs"
}

// Delete 删除 SavePath 下的文件，路径逃逸或文件不存在时跳过
func (p *LocalFS) Delete(ctx context.Context, paths ...string) error {
	for _, fileKey := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		dst := filepath.Join(p.root, filepath.FromSlash(fileKey))
		if dst != p.root && !strings.HasPrefix(dst, p.root+string(filepath.Separator)) {
			return errors.Errorf("local_fs: path %q escapes save path", fileKey)
		}
		if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, "local_fs")
		}
	}
	return nil
}
