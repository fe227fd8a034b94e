package logger

import (
	"strings"
	"testing"
)

func kvMap(t *testing.T, kv []interface{}) map[string]interface{} {
	t.Helper()
	if len(kv)%2 != 0 {
		t.Fatalf("odd kv list: %v", kv)
	}
	out := map[string]interface{}{}
	for i := 0; i < len(kv); i += 2 {
		out[kv[i].(string)] = kv[i+1]
	}
	return out
}

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	got := kvMap(t, sanitizeKVs([]interface{}{
		"Authorization", "Bearer abc",
		"qdrant_api_key", "k-123",
		"course_id", "c1",
		"raw", "aaaaaaaaaaaa.bbbbbbbbbbbb.cccc",
	}))
	if got["Authorization"] != "[REDACTED]" || got["qdrant_api_key"] != "[REDACTED]" {
		t.Fatalf("secrets leaked: %v", got)
	}
	if got["raw"] != "[REDACTED]" {
		t.Fatalf("jwt-looking value leaked: %v", got["raw"])
	}
	if got["course_id"] != "c1" {
		t.Fatalf("course_id changed: %v", got["course_id"])
	}
}

func TestSanitizeKVsHashesUserIDs(t *testing.T) {
	a := kvMap(t, sanitizeKVs([]interface{}{"user_id", "u-1"}))
	b := kvMap(t, sanitizeKVs([]interface{}{"created_by", "u-1"}))
	ha, _ := a["user_id"].(string)
	if !strings.HasPrefix(ha, "hash:") || ha == "hash:" {
		t.Fatalf("user_id not hashed: %v", a["user_id"])
	}
	if ha != b["created_by"] {
		t.Fatalf("same id hashed differently: %v vs %v", ha, b["created_by"])
	}
}

func TestSanitizeKVsNestedAndDangling(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"meta", map[string]interface{}{"password": "x", "term": "fall"},
		"dangling",
	})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("dangling key lost: %v", out)
	}
	meta := out[1].(map[string]interface{})
	if meta["password"] != "[REDACTED]" || meta["term"] != "fall" {
		t.Fatalf("nested sanitize: %v", meta)
	}
}

func TestNopLoggerIsUsable(t *testing.T) {
	log := NewNop().With("service", "test")
	log.Info("hello", "user_id", "u-1")
	log.Sync()
}
