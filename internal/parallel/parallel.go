// Package parallel 提供固定大小的 worker 池, 用于逐行/逐通道的数据并行计算
package parallel

import (
	"runtime"
	"sync"
)

// Workers 返回有效的 worker 数量, n <= 0 时取 CPU 核数
func Workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// For 使用 workers 个 goroutine 对 [0, n) 执行 fn
//
// fn 之间不共享可变状态, 每个下标只写自己负责的输出区域, 因此无需加锁。
// workers 为 1 或 n 很小时直接串行执行。
func For(n, workers int, fn func(i int)) {
	if n <= 0 {
		return
	}
	workers = min(Workers(workers), n)
	if workers == 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}
