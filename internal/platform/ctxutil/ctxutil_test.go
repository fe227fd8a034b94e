package ctxutil

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/classroom-backend/internal/domain/user"
)

func TestLogFieldsEmpty(t *testing.T) {
	if got := LogFields(context.Background()); len(got) != 0 {
		t.Fatalf("expected no fields, got %v", got)
	}
}

func TestLogFieldsTraceAndPrincipal(t *testing.T) {
	id := uuid.New()
	ctx := WithTraceData(context.Background(), &TraceData{TraceID: "t-1", RequestID: "r-1"})
	ctx = WithRequestData(ctx, &RequestData{Principal: user.Principal{ID: id, Role: user.RoleTeacher}})

	got := map[string]any{}
	fields := LogFields(ctx)
	if len(fields)%2 != 0 {
		t.Fatalf("odd number of fields: %v", fields)
	}
	for i := 0; i < len(fields); i += 2 {
		got[fields[i].(string)] = fields[i+1]
	}
	want := map[string]any{
		"trace_id":   "t-1",
		"request_id": "r-1",
		"user_id":    id.String(),
		"role":       "teacher",
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("%s: want=%v got=%v", k, v, got[k])
		}
	}
}

func TestPrincipalFromMissing(t *testing.T) {
	if _, ok := PrincipalFrom(context.Background()); ok {
		t.Fatal("expected no principal")
	}
}
