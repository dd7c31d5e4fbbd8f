package flush

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/partes/pkg/comm"
	"github.com/ja7ad/partes/pkg/pterr"
)

// runKeyed drives one slot through the driver's protocol: init, then
// ntests rounds of Run+UpdateKey, then the key check.
func runKeyed(t *testing.T, name string, kib uint64, ntests int) (Kernel, float64, error) {
	t.Helper()
	k, err := New(name, nil)
	require.NoError(t, err)
	_, err = k.Init(kib)
	require.NoError(t, err)
	for i := 0; i < ntests; i++ {
		k.Run()
		k.UpdateKey()
	}
	gap, err := k.CheckKey(ntests)
	return k, gap, err
}

func TestKeyProtocol_AllLocalVariants(t *testing.T) {
	cases := []struct {
		name   string
		kib    uint64
		ntests int
	}{
		{NameCopy, 64, 100},
		{NameScale, 64, 100},
		{NameAdd, 48, 100},
		{NameTriad, 48, 100},
		{NamePow, 16, 20},
		{NameDGEMM, 24, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			k, gap, err := runKeyed(t, tc.name, tc.kib, tc.ntests)
			require.NoError(t, err)
			assert.Less(t, gap, 1e-4, "relative gap in percent")
			k.Cleanup()
		})
	}
}

func TestKeyProtocol_DetectsSkippedRuns(t *testing.T) {
	k, err := New(NameCopy, nil)
	require.NoError(t, err)
	_, err = k.Init(16)
	require.NoError(t, err)

	// Half the runs never happen; the key must come up short.
	for i := 0; i < 5; i++ {
		k.Run()
		k.UpdateKey()
	}
	_, err = k.CheckKey(10)
	assert.ErrorIs(t, err, pterr.ErrKeyCheckFailed)
}

func TestSizing_RoundsDownToElements(t *testing.T) {
	cases := []struct {
		name     string
		kib      uint64
		wantKiB  uint64
		elemSize uint64
	}{
		{NameCopy, 64, 64, 16},  // 2 doubles divide 64 KiB exactly
		{NameTriad, 64, 63, 24}, // 3 doubles do not
		{NameAdd, 100, 99, 24},
		{NamePow, 7, 7, 16},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			k, err := New(tc.name, nil)
			require.NoError(t, err)
			real, err := k.Init(tc.kib)
			require.NoError(t, err)
			assert.Equal(t, tc.wantKiB, real.WholeKiB())
			assert.LessOrEqual(t, uint64(real), tc.kib*1024)
			k.Cleanup()
		})
	}
}

func TestSizing_ZeroIsEmpty(t *testing.T) {
	for _, name := range []string{NameNone, NameCopy, NameScale, NameAdd, NameTriad, NamePow, NameDGEMM} {
		t.Run(name, func(t *testing.T) {
			k, err := New(name, nil)
			require.NoError(t, err)
			real, err := k.Init(0)
			require.NoError(t, err)
			assert.Zero(t, real)

			// Empty slots are inert through the whole protocol.
			k.Run()
			k.UpdateKey()
			gap, err := k.CheckKey(100)
			require.NoError(t, err)
			assert.Zero(t, gap)
			k.Cleanup()
		})
	}
}

func TestSlots_AreIndependent(t *testing.T) {
	a, err := New(NameCopy, nil)
	require.NoError(t, err)
	b, err := New(NameCopy, nil)
	require.NoError(t, err)
	_, err = a.Init(16)
	require.NoError(t, err)
	_, err = b.Init(16)
	require.NoError(t, err)

	// Drive only slot a; slot b's key must stay clean for zero runs.
	for i := 0; i < 3; i++ {
		a.Run()
		a.UpdateKey()
	}
	_, err = a.CheckKey(3)
	assert.NoError(t, err)
	_, err = b.CheckKey(0)
	assert.NoError(t, err)
}

func TestNew_UnknownKernel(t *testing.T) {
	_, err := New("madd", nil)
	assert.ErrorIs(t, err, pterr.ErrInvalidArgument)
}

func TestSlotID_String(t *testing.T) {
	assert.Equal(t, "ta_front", TAFront.String())
	assert.Equal(t, "ta_rear", TARear.String())
	assert.Equal(t, "tb_front", TBFront.String())
	assert.Equal(t, "tb_rear", TBRear.String())
}

func TestBcast_AllRanksConvergeOnRootData(t *testing.T) {
	const n = 3
	w := comm.NewWorld(n)
	err := w.Run(func(c *comm.Comm) error {
		k, err := New(NameBcast, c)
		require.NoError(t, err)
		_, err = k.Init(8)
		require.NoError(t, err)

		const ntests = 4
		for i := 0; i < ntests; i++ {
			k.Run()
			k.UpdateKey()
		}
		gap, err := k.CheckKey(ntests)
		assert.NoError(t, err, "rank %d", c.Rank())
		assert.Less(t, gap, 1e-4, "rank %d", c.Rank())
		k.Cleanup()
		return nil
	})
	require.NoError(t, err)
}
