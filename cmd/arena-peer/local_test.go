package main

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestPlayLocalFoolsMate(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("f2f3\ne7e5\ng2g4\nd8h4\ne2e4\n")
	if err := playLocal(in, &out, time.Minute); err != nil {
		t.Fatalf("playLocal: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "game over: checkmate, black wins") {
		t.Fatalf("output:\n%s", got)
	}
	if strings.Contains(got, "e2e4 ") {
		t.Fatalf("moves after mate must not be read:\n%s", got)
	}
}

func TestPlayLocalPromotionAndFlag(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader(strings.Join([]string{
		"a2a4", "b7b5", "a4b5", "a7a6", "b5a6", "c8b7", "a6b7", "g8f6",
		"b7a8", "x", "n",
		"flag black",
	}, "\n"))
	if err := playLocal(in, &out, 0); err != nil {
		t.Fatalf("playLocal: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"b7a8 promotes",
		"promote to q, r, b or n",
		"b7a8n",
		"game over: timeout, draw",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}
}
