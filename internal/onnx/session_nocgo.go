//go:build !cgo

package onnx

import "github.com/shivavenkatesh/embedkit/internal/modelcache"

func (b *Backend) load(key string) (modelcache.Session, error) {
	return nil, loadError(key, ErrRuntimeUnavailable.Error())
}
