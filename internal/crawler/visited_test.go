package crawler

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisitedAdmitOnce(t *testing.T) {
	v := NewVisited()
	u := mustURL(t, "https://x.test/a")

	assert.True(t, v.Admit(u))
	assert.False(t, v.Admit(u))
	assert.False(t, v.Admit(mustURL(t, "https://x.test/a")))
	assert.True(t, v.Admit(mustURL(t, "https://x.test/b")))
	assert.Equal(t, 2, v.Len())
}

func TestVisitedConcurrentAdmission(t *testing.T) {
	v := NewVisited()
	const (
		producers = 16
		distinct  = 50
	)
	var admitted atomic.Int64
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < distinct; i++ {
				u := mustURL(t, fmt.Sprintf("https://x.test/page/%d", i))
				if v.Admit(u) {
					admitted.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, distinct, admitted.Load())
	assert.Equal(t, distinct, v.Len())
}
