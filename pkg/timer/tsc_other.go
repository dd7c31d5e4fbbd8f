//go:build !amd64

package timer

import (
	"fmt"

	"github.com/ja7ad/partes/pkg/pterr"
)

func newTSCAsym() (Source, error) {
	return nil, fmt.Errorf("%w: timer %q requires an x86-64 CPU", pterr.ErrInvalidArgument, NameTSCAsym)
}
