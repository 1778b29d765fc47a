//go:build !cgo

package fastembed

import "github.com/shivavenkatesh/embedkit/internal/modelcache"

func (b *Backend) load(id string, _ int) (modelcache.Session, error) {
	return nil, loadError(id, ErrRuntimeUnavailable.Error())
}
