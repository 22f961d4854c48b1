package utils

import "testing"

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		val        string
		defaultVal bool
		want       bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"yes", false, true},
		{"false", true, false},
		{"0", true, false},
		{"no", true, false},
		{"garbage", true, true},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Setenv("TEST_BOOL", tt.val)
		if got := GetEnvAsBool("TEST_BOOL", tt.defaultVal); got != tt.want {
			t.Errorf("GetEnvAsBool(%q, %v) = %v, want %v", tt.val, tt.defaultVal, got, tt.want)
		}
	}
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	if got := GetEnvAsInt("TEST_INT", 7); got != 42 {
		t.Errorf("got %d, want 42", got)
	}

	t.Setenv("TEST_INT", "not-a-number")
	if got := GetEnvAsInt("TEST_INT", 7); got != 7 {
		t.Errorf("got %d, want default 7", got)
	}

	t.Setenv("TEST_INT", "")
	if got := GetEnvAsInt("TEST_INT", 7); got != 7 {
		t.Errorf("got %d, want default 7", got)
	}
}

func TestGetEnvAsFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT", "0.25")
	if got := GetEnvAsFloat("TEST_FLOAT", 1.0); got != 0.25 {
		t.Errorf("got %v, want 0.25", got)
	}

	t.Setenv("TEST_FLOAT", "bad")
	if got := GetEnvAsFloat("TEST_FLOAT", 1.0); got != 1.0 {
		t.Errorf("got %v, want default 1.0", got)
	}
}

func TestGetEnvAsSlice(t *testing.T) {
	t.Setenv("TEST_SLICE", "a,b,c")
	got := GetEnvAsSlice("TEST_SLICE", []string{"x"}, ",")
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("got %v", got)
	}

	t.Setenv("TEST_SLICE", "")
	got = GetEnvAsSlice("TEST_SLICE", []string{"x"}, ",")
	if len(got) != 1 || got[0] != "x" {
		t.Errorf("got %v, want default", got)
	}
}
