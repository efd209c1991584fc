package validation

import "sync"

type cacheKey struct {
	surveyID int
	version  int
}

// SchemaCache keeps compiled submission schemas keyed by survey id and
// configuration version. Values are shared by reference: a cached schema
// is immutable, so concurrent readers need no copy. Updating a survey
// bumps its version, which makes the stale entry unreachable; Drop only
// exists to reclaim entries of deleted surveys eagerly.
type SchemaCache struct {
	mu      sync.RWMutex
	schemas map[cacheKey]SubmissionSchema
}

func NewSchemaCache() *SchemaCache {
	return &SchemaCache{schemas: make(map[cacheKey]SubmissionSchema)}
}

func (c *SchemaCache) Get(surveyID, version int) (SubmissionSchema, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	schema, ok := c.schemas[cacheKey{surveyID, version}]
	return schema, ok
}

func (c *SchemaCache) Put(surveyID, version int, schema SubmissionSchema) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// drop older generations of the same survey
	for key := range c.schemas {
		if key.surveyID == surveyID && key.version != version {
			delete(c.schemas, key)
		}
	}
	c.schemas[cacheKey{surveyID, version}] = schema
}

func (c *SchemaCache) Drop(surveyID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.schemas {
		if key.surveyID == surveyID {
			delete(c.schemas, key)
		}
	}
}
