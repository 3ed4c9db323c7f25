package register

import "sync"

// Tiny registration hub: packages register setup funcs from init() keyed
// by an owner type, the owner resolves and runs them once it is ready.

var (
	mu       sync.Mutex
	handlers = make(map[interface{}][]interface{})
)

func RegisterFunc[T any](key interface{}, f func(T)) {
	mu.Lock()
	defer mu.Unlock()
	handlers[key] = append(handlers[key], f)
}

func ResolveFuncHandlers[T any](key interface{}) []func(T) {
	mu.Lock()
	defer mu.Unlock()

	var out []func(T)
	for _, h := range handlers[key] {
		if f, ok := h.(func(T)); ok {
			out = append(out, f)
		}
	}
	return out
}
