package validation

import (
	"sync"
	"testing"

	"github.com/pollwise/backend/model"
)

func TestSchemaCache_PutGet(t *testing.T) {
	cache := NewSchemaCache()

	if _, ok := cache.Get(1, 1); ok {
		t.Error("expected miss on empty cache")
	}

	schema := singleFieldSchema(model.OptionField{})
	cache.Put(1, 1, schema)

	got, ok := cache.Get(1, 1)
	if !ok {
		t.Fatal("expected hit")
	}
	if got["1"].Kind != model.KindOption {
		t.Errorf("wrong schema: %+v", got)
	}
}

func TestSchemaCache_NewVersionReplacesOld(t *testing.T) {
	cache := NewSchemaCache()
	cache.Put(1, 1, singleFieldSchema(model.OptionField{}))
	cache.Put(1, 2, singleFieldSchema(model.TextField{MaxChars: 5}))

	if _, ok := cache.Get(1, 1); ok {
		t.Error("stale generation still cached")
	}
	got, ok := cache.Get(1, 2)
	if !ok || got["1"].Kind != model.KindText {
		t.Errorf("expected new generation, got %+v (%v)", got, ok)
	}
}

func TestSchemaCache_Drop(t *testing.T) {
	cache := NewSchemaCache()
	cache.Put(1, 1, singleFieldSchema(model.OptionField{}))
	cache.Put(2, 1, singleFieldSchema(model.OptionField{}))

	cache.Drop(1)

	if _, ok := cache.Get(1, 1); ok {
		t.Error("dropped survey still cached")
	}
	if _, ok := cache.Get(2, 1); !ok {
		t.Error("unrelated survey evicted")
	}
}

func TestSchemaCache_ConcurrentReaders(t *testing.T) {
	cache := NewSchemaCache()
	schema := radioSchema(2)
	cache.Put(1, 1, schema)

	doc := map[string]any{"1": map[string]any{"1": true, "2": false}}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, ok := cache.Get(1, 1)
			if !ok {
				t.Error("expected hit")
				return
			}
			if errs := ValidateSubmission(doc, got); errs != nil {
				t.Errorf("expected acceptance, got %v", errs)
			}
		}()
	}
	wg.Wait()
}
