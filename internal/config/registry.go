package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/fujie-cit/streaming-vad/pkg/classifier"
)

// ErrClassifierNotRegistered is returned by [Registry.CreateClassifier] when
// no factory has been registered under the requested classifier name.
var ErrClassifierNotRegistered = errors.New("config: classifier not registered")

// Registry maps classifier names to their constructor functions. It is safe
// for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	classifiers map[string]func(ClassifierEntry) (classifier.Classifier, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		classifiers: make(map[string]func(ClassifierEntry) (classifier.Classifier, error)),
	}
}

// RegisterClassifier registers a classifier factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterClassifier(name string, factory func(ClassifierEntry) (classifier.Classifier, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classifiers[name] = factory
}

// CreateClassifier instantiates a classifier using the factory registered
// under entry.Name. Returns [ErrClassifierNotRegistered] if no factory has
// been registered for that name.
func (r *Registry) CreateClassifier(entry ClassifierEntry) (classifier.Classifier, error) {
	r.mu.RLock()
	factory, ok := r.classifiers[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrClassifierNotRegistered, entry.Name)
	}
	return factory(entry)
}
