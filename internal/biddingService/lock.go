package bidding

import "sync"

// keyedMutex provides one mutex per auction id, so bid submission is
// serialized per auction while different auctions proceed in parallel.
// Entries are never evicted; the map grows with the number of auctions
// ever bid on, which is bounded by the auction table itself.
type keyedMutex struct {
	mus sync.Map // key: auctionID -> *sync.Mutex
}

// lock acquires the mutex for the given key and returns its unlock func.
func (k *keyedMutex) lock(key string) func() {
	v, _ := k.mus.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
