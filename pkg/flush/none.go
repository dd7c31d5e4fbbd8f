package flush

import "github.com/ja7ad/partes/pkg/types"

// noneKernel does nothing; the baseline for runs without flushing.
type noneKernel struct{}

func (*noneKernel) Init(kib uint64) (types.Bytes, error) { return 0, nil }

func (*noneKernel) Run() {}

func (*noneKernel) UpdateKey() {}

func (*noneKernel) CheckKey(ntests int) (float64, error) { return 0, nil }

func (*noneKernel) Cleanup() {}

func (*noneKernel) Name() string { return NameNone }
