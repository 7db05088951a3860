package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStagesNestUnderRun(t *testing.T) {
	ctx, root := StartRun(context.Background(), "run", "abc")
	ctx2, read := StartStage(ctx, "read")
	_, parse := StartStage(ctx2, "parse")
	parse.End()
	read.End()
	_, count := StartStage(ctx, "count")
	count.End()
	root.End()

	assert.Equal(t, "abc", parse.RunID)
	stages := root.Stages()
	require.Len(t, stages, 4)
	paths := make([]string, len(stages))
	for i, s := range stages {
		paths[i] = s.Path
	}
	assert.Equal(t, []string{"run", "run/read", "run/read/parse", "run/count"}, paths)
	assert.Equal(t, 2, stages[2].Depth)
	assert.GreaterOrEqual(t, stages[0].Duration, stages[1].Duration)
}

func TestStartStageWithoutRun(t *testing.T) {
	ctx, s := StartStage(context.Background(), "orphan")
	assert.Same(t, s, FromContext(ctx))
	assert.Empty(t, s.RunID)
	assert.Len(t, s.Stages(), 1)
}

func TestLogWritesEverySpan(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx, root := StartRun(context.Background(), "run", "r1")
	_, s := StartStage(ctx, "export")
	s.SetAttr("files", 3)
	s.End()
	root.End()
	root.Log(log)

	out := buf.String()
	assert.Contains(t, out, "span=run ")
	assert.Contains(t, out, "span=run/export")
	assert.Contains(t, out, "files=3")
	assert.Contains(t, out, "run_id=r1")
}
