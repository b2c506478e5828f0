package batch

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// nameAllocator hands out output file names, suffixing duplicates so that
// inputs with the same basename from different directories do not clobber
// each other.
type nameAllocator struct {
	mu   sync.Mutex
	used map[string]bool
}

func newNameAllocator() *nameAllocator {
	return &nameAllocator{used: map[string]bool{}}
}

// allocate reserves "<base>.txt" in dir, falling back to "<base>-1.txt",
// "<base>-2.txt" and so on.
func (a *nameAllocator) allocate(dir, inputName string) string {
	base := strings.TrimSuffix(inputName, filepath.Ext(inputName))

	a.mu.Lock()
	defer a.mu.Unlock()
	name := base + ".txt"
	for n := 1; a.used[name]; n++ {
		name = fmt.Sprintf("%s-%d.txt", base, n)
	}
	a.used[name] = true
	return filepath.Join(dir, name)
}
