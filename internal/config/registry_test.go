package config

import (
	"errors"
	"testing"

	"github.com/fujie-cit/streaming-vad/pkg/classifier"
	"github.com/fujie-cit/streaming-vad/pkg/classifier/mock"
)

func TestRegistry_CreateClassifier(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	want := &mock.Classifier{}
	var gotEntry ClassifierEntry
	reg.RegisterClassifier("scripted", func(entry ClassifierEntry) (classifier.Classifier, error) {
		gotEntry = entry
		return want, nil
	})

	entry := ClassifierEntry{Name: "scripted", Options: map[string]any{"threshold": 0.5}}
	got, err := reg.CreateClassifier(entry)
	if err != nil {
		t.Fatalf("CreateClassifier: %v", err)
	}
	if got != want {
		t.Error("CreateClassifier did not return the factory's classifier")
	}
	if gotEntry.Options["threshold"] != 0.5 {
		t.Errorf("factory received options %v", gotEntry.Options)
	}
}

func TestRegistry_UnknownName(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	_, err := reg.CreateClassifier(ClassifierEntry{Name: "nope"})
	if !errors.Is(err, ErrClassifierNotRegistered) {
		t.Fatalf("got %v, want ErrClassifierNotRegistered", err)
	}
}

func TestRegistry_FactoryError(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	wantErr := errors.New("bad options")
	reg.RegisterClassifier("failing", func(ClassifierEntry) (classifier.Classifier, error) {
		return nil, wantErr
	})

	_, err := reg.CreateClassifier(ClassifierEntry{Name: "failing"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want the factory error", err)
	}
}

func TestRegistry_Overwrite(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	first := &mock.Classifier{SampleRateVal: 8000}
	second := &mock.Classifier{SampleRateVal: 16000}
	reg.RegisterClassifier("x", func(ClassifierEntry) (classifier.Classifier, error) { return first, nil })
	reg.RegisterClassifier("x", func(ClassifierEntry) (classifier.Classifier, error) { return second, nil })

	got, err := reg.CreateClassifier(ClassifierEntry{Name: "x"})
	if err != nil {
		t.Fatalf("CreateClassifier: %v", err)
	}
	if got != second {
		t.Error("later registration did not overwrite the earlier one")
	}
}
