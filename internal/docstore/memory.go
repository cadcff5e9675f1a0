package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Store used by tests and local runs. Documents are
// kept as raw JSON so marshaling behaves exactly like the Postgres backend.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string]json.RawMessage
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string]json.RawMessage)}
}

func (m *Memory) Get(ctx context.Context, collection, id string, out any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.data[collection][id]
	if !ok {
		return fmt.Errorf("docstore.Memory.Get: %s/%s: %w", collection, id, ErrNotFound)
	}
	if err := json.Unmarshal(doc, out); err != nil {
		return fmt.Errorf("docstore.Memory.Get: %w", err)
	}
	return nil
}

func (m *Memory) Query(ctx context.Context, collection string, preds []Predicate, out any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	slice := reflect.ValueOf(out)
	if slice.Kind() != reflect.Pointer || slice.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("docstore.Memory.Query: out must be a pointer to a slice")
	}
	elemType := slice.Elem().Type().Elem()

	for _, doc := range m.data[collection] {
		ok, err := matches(doc, preds)
		if err != nil {
			return fmt.Errorf("docstore.Memory.Query: %w", err)
		}
		if !ok {
			continue
		}
		elem := reflect.New(elemType)
		if err := json.Unmarshal(doc, elem.Interface()); err != nil {
			return fmt.Errorf("docstore.Memory.Query: %w", err)
		}
		slice.Elem().Set(reflect.Append(slice.Elem(), elem.Elem()))
	}
	return nil
}

func (m *Memory) Create(ctx context.Context, collection string, data any) (string, error) {
	id := uuid.NewString()
	doc, err := withID(data, id)
	if err != nil {
		return "", fmt.Errorf("docstore.Memory.Create: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[collection] == nil {
		m.data[collection] = make(map[string]json.RawMessage)
	}
	m.data[collection][id] = doc
	return id, nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, data any) error {
	return m.UpdateWhere(ctx, collection, id, data, nil)
}

func (m *Memory) UpdateWhere(ctx context.Context, collection, id string, data any, preds []Predicate) error {
	doc, err := withID(data, id)
	if err != nil {
		return fmt.Errorf("docstore.Memory.UpdateWhere: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.data[collection][id]
	if !ok {
		return fmt.Errorf("docstore.Memory.UpdateWhere: %s/%s: %w", collection, id, ErrNotFound)
	}
	match, err := matches(current, preds)
	if err != nil {
		return fmt.Errorf("docstore.Memory.UpdateWhere: %w", err)
	}
	if !match {
		return fmt.Errorf("docstore.Memory.UpdateWhere: %s/%s: %w", collection, id, ErrConflict)
	}
	m.data[collection][id] = doc
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data[collection][id]; !ok {
		return fmt.Errorf("docstore.Memory.Delete: %s/%s: %w", collection, id, ErrNotFound)
	}
	delete(m.data[collection], id)
	return nil
}

// withID marshals data and forces the top-level "id" field, so documents
// always carry the id they are stored under.
func withID(data any, id string) (json.RawMessage, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	fields["id"] = id
	return json.Marshal(fields)
}

func matches(doc json.RawMessage, preds []Predicate) (bool, error) {
	if len(preds) == 0 {
		return true, nil
	}
	var fields map[string]any
	if err := json.Unmarshal(doc, &fields); err != nil {
		return false, err
	}
	for _, p := range preds {
		val, present := fields[p.Field]
		str, _ := val.(string)
		switch p.Op {
		case OpEqual:
			if !present || str != p.Value.(string) {
				return false, nil
			}
		case OpIn:
			found := false
			for _, want := range p.Value.([]string) {
				if present && str == want {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		case OpAbsent:
			if present && val != nil && str != "" {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unsupported predicate op %q", p.Op)
		}
	}
	return true, nil
}
