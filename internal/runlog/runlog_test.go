// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runlog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/reliability-bench/pkg/types"
)

func result(qid string, rep int, errMsg string) types.RunResult {
	return types.RunResult{
		Condition: types.Condition{
			QuestionID:  qid,
			PromptType:  types.PromptDirect,
			Temperature: 0.7,
			Repetition:  rep,
		},
		RunID:       "run-1",
		Model:       "gemini-test",
		PromptText:  "What is 6*7?",
		RawResponse: "CONFIDENCE: 90\nANSWER: 42",
		Timestamp:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Attempts:    1,
		Error:       errMsg,
	}
}

func backends(t *testing.T) map[types.LogBackend]string {
	dir := t.TempDir()
	return map[types.LogBackend]string{
		types.LogJSONL:  filepath.Join(dir, "results", "generations.jsonl"),
		types.LogSQLite: filepath.Join(dir, "results", "generations.db"),
	}
}

func TestAppendAndReopen(t *testing.T) {
	ctx := context.Background()
	for backend, path := range backends(t) {
		t.Run(string(backend), func(t *testing.T) {
			l, err := Open(ctx, backend, path, nil)
			require.NoError(t, err)

			require.NoError(t, l.Append(ctx, result("q1", 0, "")))
			require.NoError(t, l.Append(ctx, result("q1", 1, "after 3 attempts: 503")))
			require.NoError(t, l.Close())

			l, err = Open(ctx, backend, path, nil)
			require.NoError(t, err)
			defer l.Close()

			records, err := l.Records(ctx)
			require.NoError(t, err)
			require.Len(t, records, 2)
			assert.Equal(t, result("q1", 0, ""), records[0])
			assert.Equal(t, "after 3 attempts: 503", records[1].Error)
			assert.False(t, records[1].Completed())
		})
	}
}

func TestConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	for backend, path := range backends(t) {
		t.Run(string(backend), func(t *testing.T) {
			l, err := Open(ctx, backend, path, nil)
			require.NoError(t, err)

			var wg sync.WaitGroup
			for i := 0; i < 40; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					assert.NoError(t, l.Append(ctx, result(fmt.Sprintf("q%02d", i), 0, "")))
				}(i)
			}
			wg.Wait()
			require.NoError(t, l.Close())

			l, err = Open(ctx, backend, path, nil)
			require.NoError(t, err)
			defer l.Close()
			records, err := l.Records(ctx)
			require.NoError(t, err)
			assert.Len(t, records, 40)
			assert.Len(t, CompletedKeys(records), 40)
		})
	}
}

func TestJSONLTruncatesTornTail(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "generations.jsonl")

	l, err := OpenJSONL(path, nil)
	require.NoError(t, err)
	require.NoError(t, l.Append(ctx, result("q1", 0, "")))
	require.NoError(t, l.Close())

	// Simulate a crash halfway through the second write.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"question_id":"q1","prompt_type":"dir`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	l, err = OpenJSONL(path, nil)
	require.NoError(t, err)
	records, err := l.Records(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	// The next append lands on a clean line.
	require.NoError(t, l.Append(ctx, result("q2", 0, "")))
	require.NoError(t, l.Close())

	l, err = OpenJSONL(path, nil)
	require.NoError(t, err)
	defer l.Close()
	records, err = l.Records(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "q2", records[1].QuestionID)
}

func TestJSONLKeepsUnterminatedWholeRecord(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "generations.jsonl")
	line := `{"question_id":"q1","prompt_type":"direct","temperature":0,"repetition":0,"run_id":"r","model":"m","prompt_text":"p","raw_response":"ANSWER: 1","timestamp":"2026-03-01T12:00:00Z","attempts":1}`
	require.NoError(t, os.WriteFile(path, []byte(line), 0o644))

	l, err := OpenJSONL(path, nil)
	require.NoError(t, err)
	require.NoError(t, l.Append(ctx, result("q2", 0, "")))
	require.NoError(t, l.Close())

	l, err = OpenJSONL(path, nil)
	require.NoError(t, err)
	defer l.Close()
	records, err := l.Records(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "q1", records[0].QuestionID)
	assert.Equal(t, "q2", records[1].QuestionID)
}

func TestJSONLCorruptMiddleLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generations.jsonl")
	content := "{\"question_id\":\"q1\"}\nnot json\n{\"question_id\":\"q2\"}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := OpenJSONL(path, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorruptLog))
	assert.Contains(t, err.Error(), "line 2")
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), types.LogBackend("parquet"), filepath.Join(t.TempDir(), "x"), nil)
	require.Error(t, err)
}

func TestEffective(t *testing.T) {
	failed1 := result("q1", 0, "first failure")
	failed2 := result("q1", 0, "second failure")
	ok := result("q1", 0, "")
	dup := result("q1", 0, "")
	dup.RunID = "run-2"
	onlyFailed := result("q2", 0, "still failing")

	got := Effective([]types.RunResult{failed1, onlyFailed, failed2, ok, dup})
	require.Len(t, got, 2)

	assert.Equal(t, "q1", got[0].QuestionID)
	assert.True(t, got[0].Completed(), "success supersedes failures")
	assert.Equal(t, "run-1", got[0].RunID, "first success wins")

	assert.Equal(t, "q2", got[1].QuestionID)
	assert.Equal(t, "still failing", got[1].Error)

	latest := Effective([]types.RunResult{failed1, failed2})
	require.Len(t, latest, 1)
	assert.Equal(t, "second failure", latest[0].Error, "latest failure is kept")
}

func TestCompletedKeys(t *testing.T) {
	done := CompletedKeys([]types.RunResult{
		result("q1", 0, ""),
		result("q1", 1, "boom"),
	})
	assert.True(t, done[result("q1", 0, "").Key()])
	assert.False(t, done[result("q1", 1, "").Key()])
}
