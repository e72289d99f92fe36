package sync

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShardedMutexSerializesSameKey(t *testing.T) {
	m := NewShardedMutex()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Lock("handle-1")
			counter++
			m.Unlock("handle-1")
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestShardedMutexEmptyKey(t *testing.T) {
	m := NewShardedMutex()
	// Must not panic; empty keys map to shard 0.
	m.Lock("")
	m.Unlock("")
}

func TestShardForIsStable(t *testing.T) {
	m := NewShardedMutex()
	assert.Equal(t, m.shardFor("0xdeadbeef"), m.shardFor("0xdeadbeef"))
}
