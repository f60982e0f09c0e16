package testfixtures

import (
	"sync"
	"testing"
)

func TestIDGeneratorProducesSequentialIDs(t *testing.T) {
	gen := NewIDGenerator("entry")

	if first, second := gen.Next(), gen.Next(); first != "entry-1" || second != "entry-2" {
		t.Fatalf("unexpected identifiers: %q, %q", first, second)
	}
	if gen.Issued() != 2 {
		t.Fatalf("expected 2 issued identifiers, got %d", gen.Issued())
	}
}

func TestIDGeneratorIsUniqueAcrossGoroutines(t *testing.T) {
	gen := NewIDGenerator("")
	seen := sync.Map{}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, dup := seen.LoadOrStore(gen.Next(), struct{}{}); dup {
					t.Error("duplicate identifier issued")
				}
			}
		}()
	}
	wg.Wait()
}
