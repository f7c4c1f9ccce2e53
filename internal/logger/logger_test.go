package logger

import "testing"

func TestRedactBlanksSecretValues(t *testing.T) {
	in := []any{"table", "Bellevue_Warehouse", "api_key", "sk-123", "DATABASE_DSN", "postgres://x"}
	got := redact(in)

	if got[1] != "Bellevue_Warehouse" {
		t.Fatalf("table: want=%q got=%v", "Bellevue_Warehouse", got[1])
	}
	if got[3] != "[REDACTED]" {
		t.Fatalf("api_key: want redacted got=%v", got[3])
	}
	if got[5] != "[REDACTED]" {
		t.Fatalf("dsn: want redacted got=%v", got[5])
	}
	if in[3] != "sk-123" {
		t.Fatalf("input mutated: got=%v", in[3])
	}
}

func TestRedactOddLength(t *testing.T) {
	got := redact([]any{"token"})
	if len(got) != 1 || got[0] != "token" {
		t.Fatalf("odd kv: got=%v", got)
	}
}
