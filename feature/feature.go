package feature

import (
	"encoding/gob"
	"fmt"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DataInstance 单个样本的特征制品
type DataInstance struct {
	InstanceLat   float64
	InstanceLon   float64
	SourceFile    string
	LabelledArray [][]float64 // timesteps × bands, nil when empty
}

// Timesteps returns the time dimension of the labelled array.
func (d *DataInstance) Timesteps() int {
	return len(d.LabelledArray)
}

// Bands returns the band dimension of the labelled array, 0 when empty.
func (d *DataInstance) Bands() int {
	if len(d.LabelledArray) == 0 {
		return 0
	}
	return len(d.LabelledArray[len(d.LabelledArray)-1])
}

// Save encodes the instance to path with gob.
func (d *DataInstance) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return gob.NewEncoder(file).Encode(d)
}

type cacheEntry struct {
	instance *DataInstance
	modTime  time.Time
	size     int64
}

// Loader 带LRU缓存的特征加载器
//
// The check battery loads the same artifact from several independent
// checks; the cache keeps each one deserialized once per run. Entries
// are keyed to the file's mtime and size, so a rewritten artifact is
// decoded again on the next load.
type Loader struct {
	cache *lru.Cache[string, cacheEntry]
}

// NewLoader creates a loader caching up to size artifacts.
func NewLoader(size int) (*Loader, error) {
	cache, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &Loader{cache: cache}, nil
}

// Load deserializes the artifact at path, serving repeats from cache.
// A corrupt or unreadable file is an error, never a partial instance.
func (l *Loader) Load(path string) (*DataInstance, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if entry, ok := l.cache.Get(path); ok && entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
		return entry.instance, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var instance DataInstance
	if err := gob.NewDecoder(file).Decode(&instance); err != nil {
		l.cache.Remove(path)
		return nil, fmt.Errorf("decode feature %s: %v", path, err)
	}

	l.cache.Add(path, cacheEntry{instance: &instance, modTime: info.ModTime(), size: info.Size()})
	return &instance, nil
}
