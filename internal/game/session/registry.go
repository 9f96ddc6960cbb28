package session

import "sync"

// Registry is the process-wide set of usernames currently logged in,
// used to reject a second concurrent login for the same account.
// All methods are safe for concurrent use.
//
// The registry is never persisted; it starts empty on every server start.
type Registry struct {
	mu    sync.Mutex
	users map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{users: make(map[string]struct{})}
}

// Add inserts username if it is not already present. The membership test
// and insert happen under one lock acquisition, so two concurrent logins
// for the same account cannot both succeed.
//
// Postcondition: Returns true if the username was inserted, false if it
// was already logged in.
func (r *Registry) Add(username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[username]; ok {
		return false
	}
	r.users[username] = struct{}{}
	return true
}

// Remove deletes username from the registry. Removing an absent username
// is a no-op.
func (r *Registry) Remove(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, username)
}

// Contains reports whether username is currently logged in.
func (r *Registry) Contains(username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[username]
	return ok
}

// Count returns the number of logged-in users.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}
