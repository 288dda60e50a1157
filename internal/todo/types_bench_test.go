package todo

import (
	"fmt"
	"testing"
)

func benchStore(b *testing.B, n int) *Store {
	b.Helper()
	tasks := make([]Task, 0, n)
	for i := 1; i <= n; i++ {
		tasks = append(tasks, Task{
			ID:        fmt.Sprintf("T%05d", i),
			Title:     fmt.Sprintf("Task %d milk", i),
			Completed: i%3 == 0,
		})
	}
	return NewStore(WithTasks(tasks))
}

// BenchmarkList benchmarks the unfiltered projection over 100 tasks.
func BenchmarkList(b *testing.B) {
	s := benchStore(b, 100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.List(FilterAll, "")
	}
}

// BenchmarkListSearchLarge benchmarks filter plus search over 1000 tasks.
func BenchmarkListSearchLarge(b *testing.B) {
	s := benchStore(b, 1000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.List(FilterPending, "MILK")
	}
}

// BenchmarkCreate benchmarks task creation with the default uuid generator.
func BenchmarkCreate(b *testing.B) {
	s := NewStore()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Create("Benchmark task", "")
	}
}

// BenchmarkResolvePrefix benchmarks prefix resolution over 1000 tasks.
func BenchmarkResolvePrefix(b *testing.B) {
	s := benchStore(b, 1000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Resolve("T00500"); err != nil {
			b.Fatalf("Resolve failed: %v", err)
		}
	}
}
