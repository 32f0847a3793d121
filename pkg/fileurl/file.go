// Package fileurl 本地路径工具
package fileurl

import (
	"fmt"
	"os"
	"path/filepath"
)

// IsFile determines if the given path is a regular file
// IsFile 判断所给路径是否为文件
func IsFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// IsDir 判断所给路径是否为目录
func IsDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// IsExist determines if the given path exists
// IsExist 判断所给路径是否存在
func IsExist(dst string) bool {
	_, err := os.Stat(dst)
	if err != nil {
		return os.IsExist(err)
	}
	return true
}

// CreatePath creates the parent directory of dst
// CreatePath 创建文件所在目录
func CreatePath(dst string, perm os.FileMode) error {
	return os.MkdirAll(filepath.Dir(dst), perm)
}

// EnsureParentDirs 为每个文件路径创建所在目录，空路径跳过
func EnsureParentDirs(perm os.FileMode, files ...string) error {
	for _, f := range files {
		if f == "" {
			continue
		}
		if err := CreatePath(f, perm); err != nil {
			return fmt.Errorf("create directory for %s: %w", f, err)
		}
	}
	return nil
}
