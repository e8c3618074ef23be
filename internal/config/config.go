// Package config loads environment variables into typed configuration
// structs using struct tags understood by caarlos0/env.
//
//	type Config struct {
//		KeySet string `env:"JOSECTL_KEYSET"`
//		Output string `env:"JOSECTL_OUTPUT" envDefault:"json"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
// A .env file in the working directory, when present, is loaded once
// before the first parse. Each configuration type is parsed once and
// cached for later calls.
package config

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	dotenvOnce sync.Once
	cache      sync.Map // reflect.Type -> any (T)
	mu         sync.Mutex
)

// Load parses the process environment into cfg. The first successful
// result for a type is cached and copied into later calls.
func Load[T any](cfg *T) error {
	typ := reflect.TypeFor[T]()

	if cached, ok := cache.Load(typ); ok {
		*cfg = cached.(T)
		return nil
	}

	mu.Lock()
	defer mu.Unlock()

	if cached, ok := cache.Load(typ); ok {
		*cfg = cached.(T)
		return nil
	}

	dotenvOnce.Do(func() {
		// A missing .env file is not an error.
		_ = godotenv.Load()
	})

	var loaded T
	if err := env.Parse(&loaded); err != nil {
		return fmt.Errorf("failed to parse %s from environment: %w", typ, err)
	}

	cache.Store(typ, loaded)
	*cfg = loaded
	return nil
}

// MustLoad is like Load but panics on error.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}

// LoadFrom parses environ into cfg without touching the process
// environment or the cache.
func LoadFrom[T any](cfg *T, environ map[string]string) error {
	var loaded T
	if err := env.ParseWithOptions(&loaded, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("failed to parse %s: %w", reflect.TypeFor[T](), err)
	}
	*cfg = loaded
	return nil
}
