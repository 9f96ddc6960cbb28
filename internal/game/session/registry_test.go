package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryAddAndRemove(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.Add("alice"))
	assert.True(t, r.Contains("alice"))
	assert.Equal(t, 1, r.Count())

	assert.False(t, r.Add("alice"), "double login rejected")

	r.Remove("alice")
	assert.False(t, r.Contains("alice"))
	assert.True(t, r.Add("alice"), "can log in again after removal")
}

func TestRegistryRemoveAbsentIsNoOp(t *testing.T) {
	r := NewRegistry()
	r.Remove("ghost")
	assert.Equal(t, 0, r.Count())
}

// Many concurrent logins for one account: exactly one wins.
func TestRegistryConcurrentAddSameUser(t *testing.T) {
	r := NewRegistry()

	const attempts = 64
	var wins int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			if r.Add("alice") {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
	assert.Equal(t, 1, r.Count())
}

func TestRegistryConcurrentDistinctUsers(t *testing.T) {
	r := NewRegistry()

	const users = 50
	var wg sync.WaitGroup
	wg.Add(users)
	for i := 0; i < users; i++ {
		i := i
		go func() {
			defer wg.Done()
			assert.True(t, r.Add(fmt.Sprintf("player%02d", i)))
		}()
	}
	wg.Wait()

	assert.Equal(t, users, r.Count())
}
