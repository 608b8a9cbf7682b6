package docdb

import (
	"fmt"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"sort"
	"time"
)

// Encode serializes a document for handles storing documents as text
func Encode(doc Document) ([]byte, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "could not encode document")
	}

	return b, nil
}

// Decode is the inverse of Encode
func Decode(b []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, errors.Wrap(err, "could not decode document")
	}

	return doc, nil
}

// Copy returns a shallow copy so stored documents cannot be mutated by callers
func Copy(doc Document) Document {
	if doc == nil {
		return nil
	}

	result := make(Document, len(doc))
	for k, v := range doc {
		result[k] = v
	}

	return result
}

// Sort orders documents in place by the query field. Documents missing
// the field come first in ascending order. Sorting is stable.
func Sort(docs []Document, q Query) {
	if q.OrderBy == "" {
		return
	}

	sort.SliceStable(docs, func(i, j int) bool {
		c := Compare(docs[i][q.OrderBy], docs[j][q.OrderBy])
		if q.Desc() {
			return c > 0
		}

		return c < 0
	})
}

// Compare orders two field values: nil < numbers < strings < times < others,
// values of the same kind are compared naturally.
func Compare(a, b interface{}) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}

	switch av := a.(type) {
	case nil:
		return 0
	case string:
		return compareStrings(av, b.(string))
	case time.Time:
		bv := b.(time.Time)
		switch {
		case av.Before(bv):
			return -1
		case av.After(bv):
			return 1
		}
		return 0
	}

	if fa, ok := toFloat(a); ok {
		fb, _ := toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}

	return compareStrings(fmt.Sprint(a), fmt.Sprint(b))
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}

	return 0
}

func rank(v interface{}) int {
	if v == nil {
		return 0
	}

	if _, ok := toFloat(v); ok {
		return 1
	}

	switch v.(type) {
	case string:
		return 2
	case time.Time:
		return 3
	}

	return 4
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}

	return 0, false
}
