package middleware

import (
	"sync"
	"time"

	"NeuroQ/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Chain 可以在运行期追加中间件，挂载到 Engine 上的只有 Use() 这一个入口。
// 加入的中间件不要调用 c.Next()，由 Use 统一推进
type Chain struct {
	mu   sync.RWMutex
	mids []gin.HandlerFunc
}

func NewChain(mids ...gin.HandlerFunc) *Chain {
	return &Chain{mids: mids}
}

func (m *Chain) Add(h gin.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mids = append(m.mids, h)
}

func (m *Chain) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.mids)
}

// Use 返回总控 HandlerFunc；每次请求拷贝一份快照
func (m *Chain) Use() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.mu.RLock()
		handlers := append([]gin.HandlerFunc{}, m.mids...)
		m.mu.RUnlock()

		for _, h := range handlers {
			h(c)
			if c.IsAborted() {
				return
			}
		}
		c.Next()
	}
}

// AccessLog writes one zap line per request.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("[http]",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("cost", time.Since(start)),
		)
	}
}
