package saga

import (
	"github.com/tidwall/btree"
)

// ExecutionContext holds the values written by the steps of one saga run.
//
// Entries are partitioned by step name. A step only ever sees its own
// partition through a Scope, so two steps cannot collide on a key. The
// caller gets the whole context back in the Outcome and can inspect any
// partition.
type ExecutionContext struct {
	entries *btree.Map[StepName, *btree.Map[string, any]]
}

// NewExecutionContext creates an empty ExecutionContext.
func NewExecutionContext() *ExecutionContext {
	return &ExecutionContext{
		entries: btree.NewMap[StepName, *btree.Map[string, any]](10),
	}
}

// Scope returns the view of the context owned by the named step.
func (c *ExecutionContext) Scope(step StepName) *Scope {
	return &Scope{step: step, ctx: c}
}

// Get retrieves a value written by a step.
func (c *ExecutionContext) Get(step StepName, key string) (any, bool) {
	values, ok := c.entries.Get(step)
	if !ok {
		return nil, false
	}
	return values.Get(key)
}

// Has reports whether the step wrote the key.
func (c *ExecutionContext) Has(step StepName, key string) bool {
	_, ok := c.Get(step, key)
	return ok
}

// Steps returns the names of the steps that have written at least one value, in sorted order.
func (c *ExecutionContext) Steps() []StepName {
	names := make([]StepName, 0, c.entries.Len())
	c.entries.Scan(func(name StepName, values *btree.Map[string, any]) bool {
		if values.Len() > 0 {
			names = append(names, name)
		}
		return true
	})
	return names
}

// Keys returns the keys written by a step, in sorted order.
func (c *ExecutionContext) Keys(step StepName) []string {
	values, ok := c.entries.Get(step)
	if !ok {
		return nil
	}
	keys := make([]string, 0, values.Len())
	values.Scan(func(key string, _ any) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Snapshot copies the context into plain maps.
func (c *ExecutionContext) Snapshot() map[StepName]map[string]any {
	out := make(map[StepName]map[string]any, c.entries.Len())
	c.entries.Scan(func(name StepName, values *btree.Map[string, any]) bool {
		if values.Len() == 0 {
			return true
		}
		m := make(map[string]any, values.Len())
		values.Scan(func(key string, value any) bool {
			m[key] = value
			return true
		})
		out[name] = m
		return true
	})
	return out
}

func (c *ExecutionContext) set(step StepName, key string, value any) {
	values, ok := c.entries.Get(step)
	if !ok {
		values = btree.NewMap[string, any](10)
		c.entries.Set(step, values)
	}
	values.Set(key, value)
}

func (c *ExecutionContext) delete(step StepName, key string) {
	if values, ok := c.entries.Get(step); ok {
		values.Delete(key)
	}
}

// Scope is the part of an ExecutionContext a single step may read and write.
type Scope struct {
	step StepName
	ctx  *ExecutionContext
}

// Step returns the name of the step owning this scope.
func (s *Scope) Step() StepName {
	return s.step
}

// Set stores a value under key.
func (s *Scope) Set(key string, value any) {
	s.ctx.set(s.step, key, value)
}

// Get retrieves a value previously stored under key.
func (s *Scope) Get(key string) (any, bool) {
	return s.ctx.Get(s.step, key)
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *Scope) Delete(key string) {
	s.ctx.delete(s.step, key)
}

// Lookup retrieves a value from the scope with type assertion.
// Returns the zero value and false when the key is absent or holds another type.
func Lookup[R any](s *Scope, key string) (R, bool) {
	var zero R
	value, found := s.Get(key)
	if !found {
		return zero, false
	}
	typed, ok := value.(R)
	if !ok {
		return zero, false
	}
	return typed, true
}

// LookupTyped retrieves a value written by any step with type assertion.
func LookupTyped[R any](c *ExecutionContext, step StepName, key string) (R, bool) {
	return Lookup[R](c.Scope(step), key)
}
