package app

import (
	"strings"

	pkgapp "github.com/haierkeys/gift-share-service/pkg/app"

	"golang.org/x/mod/semver"
)

// 版本信息变量，由构建时注入
var (
	Version   string = "0.3.0"
	GitTag    string = "2000.01.01.release"
	BuildTime string = "2000-01-01T00:00:00+0800"
)

// 应用名称常量
const (
	// Name 应用名称
	Name = "Gift Share Service"
)

// CanonicalVersion returns Version as a canonical semver string (vMAJOR.MINOR.PATCH)
// Build-injected values that are not valid semver are returned unchanged.
// CanonicalVersion 返回规范化的语义版本号
func CanonicalVersion() string {
	v := Version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return Version
	}
	return semver.Canonical(v)
}

// IsNewerVersion reports whether remote is a newer release than the running binary
// IsNewerVersion 判断 remote 是否比当前版本新
func IsNewerVersion(remote string) bool {
	if !strings.HasPrefix(remote, "v") {
		remote = "v" + remote
	}
	current := CanonicalVersion()
	if !semver.IsValid(remote) || !semver.IsValid(current) {
		return false
	}
	return semver.Compare(remote, current) > 0
}

// VersionInfo 获取版本信息
func VersionInfo() pkgapp.VersionInfo {
	return pkgapp.VersionInfo{
		Version:   strings.TrimPrefix(CanonicalVersion(), "v"),
		GitTag:    GitTag,
		BuildTime: BuildTime,
	}
}
