package replay

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// ProgressBar renders replay progress on stdout. Safe for concurrent
// Increment calls from the replay workers.
type ProgressBar struct {
	total     int
	current   int
	startTime time.Time
	width     int
	mu        sync.Mutex
}

func NewProgressBar(total int) *ProgressBar {
	pb := &ProgressBar{
		total:     total,
		startTime: time.Now(),
		width:     40,
	}

	pb.render()
	return pb
}

func (pb *ProgressBar) Increment() {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	pb.current++
	pb.render()
}

func (pb *ProgressBar) Finish() {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	pb.current = pb.total
	pb.render()
	fmt.Println()
}

func (pb *ProgressBar) render() {
	if pb.total == 0 {
		return
	}

	percent := float64(pb.current) / float64(pb.total)
	filled := int(percent * float64(pb.width))

	bar := strings.Repeat("=", filled) + strings.Repeat("-", pb.width-filled)
	elapsed := time.Since(pb.startTime).Round(time.Second)

	fmt.Printf("\r[%s] %d/%d (%.0f%%) %s  ",
		bar, pb.current, pb.total, percent*100, elapsed)
}
