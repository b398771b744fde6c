// Package crawl implements breadth-first site traversal bounded by page
// count, depth, and concurrency.
package crawl

import (
	"sync"

	"github.com/Mati018/website-search/bloom"
)

// Link is a frontier entry: a normalized URL and its BFS depth.
type Link struct {
	URL   string
	Depth int
}

// Frontier is an in-memory FIFO crawl queue with Bloom filter
// deduplication, safe for concurrent use. FIFO order preserves the
// breadth-first traversal: links are enqueued as they are discovered at
// increasing depth.
type Frontier struct {
	mu    sync.Mutex
	seen  *bloom.Filter
	queue []Link
	head  int
}

// NewFrontier creates a Frontier sized for n expected URLs with the
// given false positive rate for deduplication.
func NewFrontier(n uint, fpRate float64) *Frontier {
	return &Frontier{
		seen: bloom.NewFilter(n, fpRate),
	}
}

// Push adds a link to the frontier. Returns false if the URL has already
// been seen.
func (f *Frontier) Push(link Link) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.seen.Test(link.URL) {
		return false
	}
	f.seen.Add(link.URL)
	f.queue = append(f.queue, link)
	return true
}

// Pop returns the next link in FIFO order.
// The bool result is false if the frontier is empty.
func (f *Frontier) Pop() (Link, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.head >= len(f.queue) {
		return Link{}, false
	}
	link := f.queue[f.head]
	f.queue[f.head] = Link{}
	f.head++

	// Reclaim the consumed prefix once it dominates the backing array.
	if f.head > 64 && f.head*2 >= len(f.queue) {
		f.queue = append([]Link(nil), f.queue[f.head:]...)
		f.head = 0
	}

	return link, true
}

// Len returns the number of queued links.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue) - f.head
}

// Seen returns true if the URL has been queued or marked before.
func (f *Frontier) Seen(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen.Test(url)
}

// MarkSeen records a URL as seen without queueing it. Used for redirect
// targets so the destination page is not fetched a second time.
func (f *Frontier) MarkSeen(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen.Add(url)
}
