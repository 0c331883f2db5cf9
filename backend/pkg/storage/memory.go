package storage

import (
	"context"
	"sync"

	pkgerrors "staffhub/backend/pkg/errors"
)

type memoryObject struct {
	body        []byte
	contentType string
}

// Memory 进程内对象存储
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	// FailPut 非 nil 时 Put 直接返回该错误（用于模拟存储故障）
	FailPut error
}

// NewMemory 创建内存存储
func NewMemory() *Memory {
	return &Memory{objects: make(map[string]memoryObject)}
}

func (m *Memory) Put(_ context.Context, key string, body []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPut != nil {
		return m.FailPut
	}
	cp := make([]byte, len(body))
	copy(cp, body)
	m.objects[key] = memoryObject{body: cp, contentType: contentType}
	return nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, "", pkgerrors.ErrObjectNotFound
	}
	return obj.body, obj.contentType, nil
}

// Keys 返回当前所有 key
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}
