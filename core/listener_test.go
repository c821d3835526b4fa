package core

import (
	"context"
	"errors"
	"testing"
)

// queueRunner collects posted tasks so tests can run them explicitly.
type queueRunner struct {
	tasks []Task
}

func (r *queueRunner) PostTask(task Task) { r.tasks = append(r.tasks, task) }

func (r *queueRunner) drain() {
	for len(r.tasks) > 0 {
		task := r.tasks[0]
		r.tasks = r.tasks[1:]
		task(WithTaskRunner(context.Background(), r))
	}
}

// TestPostSuccess verifies the success callback is posted, not called
// Given: A listener and a runner that only queues
// When: PostSuccess is called
// Then: Nothing happens until the runner executes the posted task, and the
// callback receives the runner's context
func TestPostSuccess(t *testing.T) {
	runner := &queueRunner{}
	var got []int
	onRunner := false
	listener := ListenerFuncs[int]{Success: func(ctx context.Context, v int) {
		got = append(got, v)
		onRunner = IsRunningOn(ctx, runner)
	}}

	PostSuccess[int](runner, listener, 42)

	if len(got) != 0 {
		t.Fatal("OnSuccess ran synchronously")
	}
	runner.drain()
	if len(got) != 1 || got[0] != 42 {
		t.Errorf("OnSuccess values = %v, want [42]", got)
	}
	if !onRunner {
		t.Error("OnSuccess ctx does not name the runner")
	}
}

// TestPostError verifies the error callback receives the same error once
func TestPostError(t *testing.T) {
	runner := &queueRunner{}
	want := CommandErrorFromStatus(404, "missing")
	var got []*CommandError
	onRunner := false
	listener := ErrorListenerFunc(func(ctx context.Context, err *CommandError) {
		got = append(got, err)
		onRunner = IsRunningOn(ctx, runner)
	})

	PostError(runner, listener, want)
	runner.drain()

	if !onRunner {
		t.Error("OnError ctx does not name the runner")
	}
	if len(got) != 1 || got[0] != want {
		t.Errorf("OnError got %v, want exactly %v", got, want)
	}
}

// TestPost_NilListener verifies a nil listener posts nothing
func TestPost_NilListener(t *testing.T) {
	runner := &queueRunner{}

	PostSuccess[string](runner, nil, "x")
	PostError(runner, nil, NotSupported())
	PostResult[string](runner, nil, "", errors.New("fail"))

	if len(runner.tasks) != 0 {
		t.Errorf("posted %d tasks for nil listener, want 0", len(runner.tasks))
	}
}

// TestPostResult verifies the branch taken for value and error results
func TestPostResult(t *testing.T) {
	runner := &queueRunner{}
	var successes, failures int
	var lastErr *CommandError
	listener := ListenerFuncs[string]{
		Success: func(context.Context, string) { successes++ },
		Error: func(_ context.Context, err *CommandError) {
			failures++
			lastErr = err
		},
	}

	PostResult[string](runner, listener, "ok", nil)
	cause := errors.New("disk full")
	PostResult[string](runner, listener, "", cause)
	runner.drain()

	if successes != 1 || failures != 1 {
		t.Fatalf("successes=%d failures=%d, want 1/1", successes, failures)
	}
	if !errors.Is(lastErr, cause) {
		t.Errorf("error %v does not wrap cause", lastErr)
	}
}

func TestListenerFuncs_NilFuncs(t *testing.T) {
	var l ListenerFuncs[int]
	l.OnSuccess(context.Background(), 1)
	l.OnError(context.Background(), NotSupported())
}
