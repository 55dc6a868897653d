package portscan

import (
	"reflect"
	"strconv"
	"testing"
)

func TestParsePorts(t *testing.T) {
	cases := map[string][]int{
		"80,443,22":    {22, 80, 443},
		"1-3":          {1, 2, 3},
		"5-1":          {1, 2, 3, 4, 5},
		" 22 , 22,21 ": {21, 22},
		"8000-8002,80": {80, 8000, 8001, 8002},
	}
	for input, want := range cases {
		t.Run(input, func(t *testing.T) {
			got, warnings := ParsePorts(input)
			if len(warnings) != 0 {
				t.Fatalf("unexpected warnings: %v", warnings)
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("got %v want %v", got, want)
			}
		})
	}
}

func TestParsePortsCanonicalOutputIsStable(t *testing.T) {
	first, _ := ParsePorts("443,80,22,1-3")
	canonical := ""
	for i, p := range first {
		if i > 0 {
			canonical += ","
		}
		canonical += strconv.Itoa(p)
	}
	second, _ := ParsePorts(canonical)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("re-parse mismatch: first=%v second=%v", first, second)
	}
}

func TestParsePortsMalformedTokensWarn(t *testing.T) {
	got, warnings := ParsePorts("abc")
	if len(got) != 0 {
		t.Fatalf("expected no ports, got %v", got)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %v", warnings)
	}

	got, warnings = ParsePorts("22,x-9,0,70000,1-2-3,80")
	if !reflect.DeepEqual(got, []int{22, 80}) {
		t.Fatalf("expected valid tokens to survive, got %v", got)
	}
	if len(warnings) != 4 {
		t.Fatalf("expected 4 warnings, got %d: %v", len(warnings), warnings)
	}
}

func TestParsePortsTop100(t *testing.T) {
	got, warnings := ParsePorts("top-100,12345")
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(got) != len(getTop100Ports())+1 {
		t.Fatalf("unexpected size: got=%d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1] >= got[i] {
			t.Fatalf("ports not strictly ascending at %d: %v", i, got)
		}
	}
}
