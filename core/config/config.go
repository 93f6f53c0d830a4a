package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrNotPointer is returned when Load receives something other than a non-nil struct pointer.
var ErrNotPointer = errors.New("config: target must be a non-nil pointer to a struct")

var (
	dotenvOnce sync.Once

	cacheMu sync.Mutex
	cache   = make(map[reflect.Type]any)
)

// Load fills cfg from the environment. The first call for a type parses the
// environment; later calls copy the cached value.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNotPointer
	}
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return ErrNotPointer
	}

	dotenvOnce.Do(func() {
		// A missing .env file is normal outside local development.
		_ = godotenv.Load()
	})

	cacheMu.Lock()
	defer cacheMu.Unlock()

	if cached, ok := cache[t]; ok {
		*cfg = cached.(T)
		return nil
	}

	var loaded T
	if err := env.Parse(&loaded); err != nil {
		return fmt.Errorf("config: parse %s: %w", t, err)
	}
	cache[t] = loaded
	*cfg = loaded
	return nil
}

// MustLoad is like Load but panics on error.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}

// Reset drops every cached configuration. Intended for tests.
func Reset() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cache = make(map[reflect.Type]any)
}
