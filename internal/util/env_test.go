package util

import "testing"

func TestGetEnvString(t *testing.T) {
	t.Setenv("REGISTRY_TEST_STRING", "value")
	if got := GetEnvString("REGISTRY_TEST_STRING", "fallback"); got != "value" {
		t.Fatalf("GetEnvString = %q", got)
	}
	if got := GetEnvString("REGISTRY_TEST_UNSET", "fallback"); got != "fallback" {
		t.Fatalf("GetEnvString fallback = %q", got)
	}
	t.Setenv("REGISTRY_TEST_STRING", "")
	if got := GetEnvString("REGISTRY_TEST_STRING", "fallback"); got != "" {
		t.Fatalf("explicit empty value ignored: %q", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("REGISTRY_TEST_INT", "8081")
	if got := GetEnvInt("REGISTRY_TEST_INT", 8080); got != 8081 {
		t.Fatalf("GetEnvInt = %d", got)
	}
	t.Setenv("REGISTRY_TEST_INT", "not-a-number")
	if got := GetEnvInt("REGISTRY_TEST_INT", 8080); got != 8080 {
		t.Fatalf("GetEnvInt on garbage = %d, want fallback", got)
	}
	if got := GetEnvInt("REGISTRY_TEST_UNSET", 8080); got != 8080 {
		t.Fatalf("GetEnvInt fallback = %d", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("REGISTRY_TEST_BOOL", "true")
	if !GetEnvBool("REGISTRY_TEST_BOOL", false) {
		t.Fatal("true not recognized")
	}
	t.Setenv("REGISTRY_TEST_BOOL", "yes")
	if GetEnvBool("REGISTRY_TEST_BOOL", false) {
		t.Fatal("non-literal value must fall back")
	}
	if !GetEnvBool("REGISTRY_TEST_UNSET", true) {
		t.Fatal("unset must fall back")
	}
}
