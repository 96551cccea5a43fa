package testsupport

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextSequence_Increments(t *testing.T) {
	seq1 := NextSequence()
	seq2 := NextSequence()

	assert.Equal(t, seq1+1, seq2, "Should increment by 1")
}

func TestUniqueName_GeneratesUnique(t *testing.T) {
	name1 := UniqueName("voter")
	name2 := UniqueName("voter")

	assert.NotEqual(t, name1, name2)
	assert.Contains(t, name1, "voter_")
}

func TestUniqueSymbol_FitsColumn(t *testing.T) {
	s := UniqueSymbol()
	assert.LessOrEqual(t, len(s), 16)
	assert.Equal(t, byte('T'), s[0])
}

func TestNextSequence_Concurrent(t *testing.T) {
	const goroutines = 50
	seen := make(chan uint64, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- NextSequence()
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[uint64]struct{})
	for s := range seen {
		unique[s] = struct{}{}
	}
	assert.Len(t, unique, goroutines, "All sequences should be unique")
}
