package timer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/partes/pkg/comm"
	"github.com/ja7ad/partes/pkg/pterr"
)

// scriptedSource replays a fixed stamp sequence; Tick/Tock pairs read
// consecutive values.
type scriptedSource struct {
	stamps []int64
	i      int
}

func (s *scriptedSource) next() int64 {
	v := s.stamps[s.i%len(s.stamps)]
	s.i++
	return v
}

func (s *scriptedSource) Init() error  { return nil }
func (s *scriptedSource) Tick() int64  { return s.next() }
func (s *scriptedSource) Tock() int64  { return s.next() }
func (s *scriptedSource) Stamp() int64 { return s.next() }
func (s *scriptedSource) Name() string { return "scripted" }

func noBarrier() {}

func TestCharacterize_DerivesTickAndOvh(t *testing.T) {
	// Grain 5, with repeated reads inside the same tick: the smallest
	// positive jump is 5, the smallest round trip 0.
	src := &scriptedSource{stamps: []int64{100, 100, 105, 105, 110, 120, 125, 125}}
	spec, err := Characterize(src, 8, noBarrier)
	require.NoError(t, err)
	assert.Equal(t, int64(5), spec.Tick)
	assert.GreaterOrEqual(t, spec.Ovh, int64(0))
}

func TestCharacterize_NonMonotonicIsFatal(t *testing.T) {
	src := &scriptedSource{stamps: []int64{100, 105, 90, 110}}
	_, err := Characterize(src, 4, noBarrier)
	assert.ErrorIs(t, err, pterr.ErrTimerNegative)
}

func TestCharacterize_FlatSourceDefaultsTickToOne(t *testing.T) {
	src := &scriptedSource{stamps: []int64{42, 42, 42, 42}}
	spec, err := Characterize(src, 4, noBarrier)
	require.NoError(t, err)
	assert.Equal(t, int64(1), spec.Tick)
	assert.Zero(t, spec.Ovh)
}

func TestCharacterize_TooFewReads(t *testing.T) {
	src := &scriptedSource{stamps: []int64{1}}
	_, err := Characterize(src, 1, noBarrier)
	assert.ErrorIs(t, err, pterr.ErrInvalidArgument)
}

func TestCharacterize_MonotonicClock(t *testing.T) {
	src, err := New(NameMonotonic, nil)
	require.NoError(t, err)

	spec, err := Characterize(src, 2000, noBarrier)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, spec.Tick, int64(1))
	assert.GreaterOrEqual(t, spec.Ovh, int64(0))
}

func TestWalltimeSource_MonotoneAcrossRanks(t *testing.T) {
	w := comm.NewWorld(2)
	err := w.Run(func(c *comm.Comm) error {
		src, err := New(NameWalltime, c)
		require.NoError(t, err)
		require.NoError(t, src.Init())
		t0 := src.Tick()
		t1 := src.Tock()
		assert.GreaterOrEqual(t, t1, t0)
		return nil
	})
	require.NoError(t, err)
}

func TestNew_UnknownTimer(t *testing.T) {
	_, err := New("hpet", nil)
	assert.ErrorIs(t, err, pterr.ErrInvalidArgument)
}
