package dedup

import (
	"fmt"
	"testing"
)

func TestFilterTestAndAdd(t *testing.T) {
	f := NewFilter(1000, 0.01)

	if f.TestAndAdd("example.com") {
		t.Errorf("First TestAndAdd should return false")
	}

	if !f.TestAndAdd("example.com") {
		t.Errorf("Second TestAndAdd should return true")
	}
}

func TestFilterTest(t *testing.T) {
	f := NewFilter(1000, 0.01)

	if f.Test("example.com") {
		t.Errorf("Test should return false before adding")
	}

	f.TestAndAdd("example.com")

	if !f.Test("example.com") {
		t.Errorf("Test should return true for added data")
	}
}

func TestFilterDefaults(t *testing.T) {
	f := NewFilter(100, 0)

	for i := 0; i < 100; i++ {
		domain := fmt.Sprintf("domain%d.com", i)
		if f.TestAndAdd(domain) {
			t.Fatalf("TestAndAdd(%s) reported a duplicate", domain)
		}
	}

	if size := f.ApproximatedSize(); size < 90 || size > 110 {
		t.Errorf("ApproximatedSize() = %d, want about 100", size)
	}
}
