package session

import (
	"fmt"
	"sync/atomic"
)

// Generator allocates session ids.
type Generator struct {
	counter uint64
}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Next() string {
	n := atomic.AddUint64(&g.counter, 1)
	return fmt.Sprintf("sess-%d", n)
}
