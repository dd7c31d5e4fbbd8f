//go:build !amd64

package gauge

import (
	"fmt"

	"github.com/ja7ad/partes/pkg/pterr"
)

func newFMA(name string) (Kernel, error) {
	return nil, fmt.Errorf("%w: gauge %q requires an x86-64 CPU", pterr.ErrInvalidArgument, name)
}
