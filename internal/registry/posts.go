// Package registry keeps the set of enumerated posts and notifies watchers
// when it changes.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/conneroisu/ogcard/internal/types"
)

// PostRegistry manages all discovered posts
type PostRegistry struct {
	posts    map[string]*types.Post
	mutex    sync.RWMutex
	watchers []chan types.PostEvent
}

// NewPostRegistry creates a new post registry
func NewPostRegistry() *PostRegistry {
	return &PostRegistry{
		posts:    make(map[string]*types.Post),
		watchers: make([]chan types.PostEvent, 0),
	}
}

// Register adds or updates a post
func (r *PostRegistry) Register(post *types.Post) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	eventType := types.EventTypeAdded
	if old, exists := r.posts[post.ID]; exists {
		if old.Hash != "" && old.Hash == post.Hash {
			return
		}
		eventType = types.EventTypeUpdated
	}

	r.posts[post.ID] = post
	r.notify(eventType, post)
}

// Get retrieves a post by id
func (r *PostRegistry) Get(id string) (*types.Post, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	post, exists := r.posts[id]
	return post, exists
}

// FindByPath returns the post read from path.
func (r *PostRegistry) FindByPath(path string) (*types.Post, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, post := range r.posts {
		if post.FilePath == path {
			return post, true
		}
	}
	return nil, false
}

// All returns every post, newest first. Posts with the same date are
// ordered by id.
func (r *PostRegistry) All() []*types.Post {
	r.mutex.RLock()
	result := make([]*types.Post, 0, len(r.posts))
	for _, post := range r.posts {
		result = append(result, post)
	}
	r.mutex.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// Published returns the non-draft posts in All order.
func (r *PostRegistry) Published() []*types.Post {
	all := r.All()
	result := all[:0]
	for _, post := range all {
		if !post.Draft {
			result = append(result, post)
		}
	}
	return result
}

// Remove removes a post
func (r *PostRegistry) Remove(id string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	post, exists := r.posts[id]
	if !exists {
		return
	}

	delete(r.posts, id)
	r.notify(types.EventTypeRemoved, post)
}

// RemoveByPath removes every post read from path and reports whether any
// was removed.
func (r *PostRegistry) RemoveByPath(path string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	removed := false
	for id, post := range r.posts {
		if post.FilePath == path {
			delete(r.posts, id)
			r.notify(types.EventTypeRemoved, post)
			removed = true
		}
	}
	return removed
}

// Watch returns a channel that receives post events
func (r *PostRegistry) Watch() <-chan types.PostEvent {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan types.PostEvent, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it
func (r *PostRegistry) UnWatch(ch <-chan types.PostEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// Count returns the number of registered posts
func (r *PostRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.posts)
}

// notify must be called with the lock held.
func (r *PostRegistry) notify(eventType types.EventType, post *types.Post) {
	event := types.PostEvent{
		Type:      eventType,
		Post:      post,
		Timestamp: time.Now(),
	}

	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}
