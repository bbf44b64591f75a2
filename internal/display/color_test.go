package display

import (
	"testing"
)

func TestWrap_Enabled(t *testing.T) {
	// Force colors on for testing.
	SetEnabled(true)
	defer SetEnabled(false)

	got := Bold("hello")
	if got != "\033[1mhello\033[0m" {
		t.Errorf("Bold(\"hello\") = %q, want ANSI bold wrapped", got)
	}
}

func TestWrap_Disabled(t *testing.T) {
	SetEnabled(false)

	got := Bold("hello")
	if got != "hello" {
		t.Errorf("Bold(\"hello\") with colors disabled = %q, want plain \"hello\"", got)
	}
}

func TestDim(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)

	got := Dim("text")
	if got != "\033[2mtext\033[0m" {
		t.Errorf("Dim(\"text\") = %q, want ANSI dim wrapped", got)
	}
}

func TestYellow(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)

	got := Yellow("warn")
	if got != "\033[33mwarn\033[0m" {
		t.Errorf("Yellow(\"warn\") = %q, want ANSI yellow wrapped", got)
	}
}

func TestGray(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)

	got := Gray("muted")
	if got != "\033[90mmuted\033[0m" {
		t.Errorf("Gray(\"muted\") = %q, want ANSI gray wrapped", got)
	}
}

func TestAccent(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)

	got := Accent("next")
	want := "\033[1m\033[36mnext\033[0m"
	if got != want {
		t.Errorf("Accent(\"next\") = %q, want %q", got, want)
	}

	SetEnabled(false)
	if got := Accent("next"); got != "next" {
		t.Errorf("Accent with colors disabled = %q, want plain", got)
	}
}

func TestBoldf(t *testing.T) {
	SetEnabled(false)

	got := Boldf("next in %s", "42m")
	if got != "next in 42m" {
		t.Errorf("Boldf = %q, want %q", got, "next in 42m")
	}
}
