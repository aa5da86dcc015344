package lfsinitrd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpdateBootloaderAbsentIsNonFatal(t *testing.T) {
	cfg := &PipelineConfig{WorkDir: t.TempDir(), FakeRoot: true}

	// No grub-mkconfig anywhere on an empty PATH: the stage warns and
	// succeeds instead of failing the run.
	t.Setenv("PATH", "")

	require.NoError(t, updateBootloader(cfg, NewExecutor(context.Background())))
}
