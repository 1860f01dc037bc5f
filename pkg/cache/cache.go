package cache

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// Entry is a cached session token.
type Entry struct {
	Token   *oauth2.Token `json:"token"`
	SavedAt time.Time     `json:"saved_at"`
}

type TokenCache struct {
	MaxEntries int
	Accounts   map[string]Entry `json:"accounts"`
	lock       sync.Mutex
}

// New returns a TokenCache that holds session tokens for up to maxEntries usernames. When the
// cache is full, the entry that was saved least recently is evicted.
//
// Set maxEntries to zero for an unbounded cache.
func New(maxEntries int) *TokenCache {
	return &TokenCache{
		MaxEntries: maxEntries,
		Accounts:   make(map[string]Entry),
	}
}

// Import a TokenCache using data in r.
// The data should previously have been generated using [TokenCache.Export].
func Import(r io.Reader) (*TokenCache, error) {
	var cache TokenCache
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&cache); err != nil {
		return nil, err
	}
	if cache.Accounts == nil {
		cache.Accounts = make(map[string]Entry)
	}
	return &cache, nil
}

// ImportFromFile reads a TokenCache from disk.
func ImportFromFile(filename string) (*TokenCache, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Import(file)
}

// Export writes a serialized TokenCache to w.
func (c *TokenCache) Export(w io.Writer) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	return json.NewEncoder(w).Encode(c)
}

// ExportToFile writes a TokenCache to disk. The file is only readable by the current user.
func (c *TokenCache) ExportToFile(filename string) error {
	file, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer file.Close()

	return c.Export(file)
}

// Update the TokenCache's entry for username.
func (c *TokenCache) Update(username string, token *oauth2.Token) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.Accounts[username] = Entry{Token: token, SavedAt: time.Now()}
	if c.MaxEntries > 0 && len(c.Accounts) > c.MaxEntries {
		oldest := username
		oldestTime := time.Now()
		for name, entry := range c.Accounts {
			if entry.SavedAt.Before(oldestTime) {
				oldest = name
				oldestTime = entry.SavedAt
			}
		}
		delete(c.Accounts, oldest)
	}
}

// GetEntry returns the token saved for username. Expired tokens are returned as well, since
// their refresh token may still be usable.
func (c *TokenCache) GetEntry(username string) (*oauth2.Token, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	entry, ok := c.Accounts[username]
	if !ok || entry.Token == nil {
		return nil, false
	}
	return entry.Token, true
}

// Delete removes the entry for username, for example after the server rejects its token.
func (c *TokenCache) Delete(username string) {
	c.lock.Lock()
	defer c.lock.Unlock()

	delete(c.Accounts, username)
}
