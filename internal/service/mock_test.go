package service

import "context"

// mockBackend is a func-field implementation of BulkBackend.
type mockBackend struct {
	ApplyChangeFunc func(ctx context.Context, id uint, ch Change, actor uint) error
	DeleteFunc      func(ctx context.Context, id, actor uint) error
}

func (m *mockBackend) ApplyChange(ctx context.Context, id uint, ch Change, actor uint) error {
	if m.ApplyChangeFunc != nil {
		return m.ApplyChangeFunc(ctx, id, ch, actor)
	}
	return nil
}

func (m *mockBackend) Delete(ctx context.Context, id, actor uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id, actor)
	}
	return nil
}
