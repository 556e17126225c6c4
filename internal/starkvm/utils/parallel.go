package utils

import (
	"runtime"
	"sync"
)

// Parallelize splits [0, n) into contiguous chunks and runs work on
// each chunk from its own goroutine. It blocks until all chunks are
// done. Small inputs run inline.
func Parallelize(n int, work func(start, end int)) {
	workers := runtime.NumCPU()
	if n < 2*workers || workers == 1 {
		work(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			work(start, end)
		}(start, end)
	}
	wg.Wait()
}
