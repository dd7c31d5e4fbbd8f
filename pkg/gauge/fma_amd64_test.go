package gauge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ja7ad/partes/pkg/pterr"
)

func TestFMAKernels_RunWhereSupported(t *testing.T) {
	for _, name := range []string{NameFMAScalar, NameFMAAVX2, NameFMAAVX512} {
		t.Run(name, func(t *testing.T) {
			k, err := New(name)
			require.NoError(t, err)
			if err := k.Init(); err != nil {
				require.ErrorIs(t, err, pterr.ErrInvalidArgument)
				t.Skipf("%s not supported by this CPU", name)
			}
			for _, n := range []int64{0, 1, 1000, 100_000} {
				k.Run(n)
			}
			k.Cleanup()
		})
	}
}
