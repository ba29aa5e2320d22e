package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
)

func TestHandlersRegistryRoutesByType(t *testing.T) {
	var got []string
	boom := errors.New("boom")

	r := NewHandlersRegistry()
	r.Register(TypeNarrationRun, asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
		got = append(got, string(task.Payload()))
		if string(task.Payload()) == "fail" {
			return boom
		}
		return nil
	}))

	ctx := context.Background()
	if err := r.Mux().ProcessTask(ctx, asynq.NewTask(TypeNarrationRun, []byte("ok"))); err != nil {
		t.Errorf("ProcessTask: %v", err)
	}
	if err := r.Mux().ProcessTask(ctx, asynq.NewTask(TypeNarrationRun, []byte("fail"))); !errors.Is(err, boom) {
		t.Errorf("err = %v, want the handler's error", err)
	}
	if err := r.Mux().ProcessTask(ctx, asynq.NewTask("unknown:type", nil)); err == nil {
		t.Error("unregistered task type was accepted")
	}
	if len(got) != 2 {
		t.Errorf("handled %v", got)
	}
}
