package docdb

import (
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestSort(t *testing.T) {
	t.Parallel()

	t.Run("iso timestamps in descending order", func(t *testing.T) {
		docs := []Document{
			{"timestamp": "2021-01-01T12:00:00Z", "name": "a"},
			{"timestamp": "2022-03-01T00:00:00Z", "name": "c"},
			{"timestamp": "2021-06-01T08:30:00Z", "name": "b"},
		}

		Sort(docs, OrderBy("timestamp", DESC))

		assert.Equal(t, "c", docs[0]["name"])
		assert.Equal(t, "b", docs[1]["name"])
		assert.Equal(t, "a", docs[2]["name"])
	})

	t.Run("missing fields come first in ascending order", func(t *testing.T) {
		docs := []Document{
			{"n": 3},
			{},
			{"n": 1.5},
		}

		Sort(docs, OrderBy("n", ASC))

		assert.Nil(t, docs[0]["n"])
		assert.Equal(t, 1.5, docs[1]["n"])
		assert.Equal(t, 3, docs[2]["n"])
	})

	t.Run("ties keep insertion order", func(t *testing.T) {
		docs := []Document{
			{"k": "x", "i": 1},
			{"k": "x", "i": 2},
			{"k": "a", "i": 3},
		}

		Sort(docs, OrderBy("k", ASC))

		assert.Equal(t, 3, docs[0]["i"])
		assert.Equal(t, 1, docs[1]["i"])
		assert.Equal(t, 2, docs[2]["i"])
	})
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	b, err := Encode(Document{"name": "add-users", "filename": "20210101120000-add-users.go"})
	require.NoError(t, err)

	doc, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "add-users", doc["name"])
	assert.Equal(t, "20210101120000-add-users.go", doc["filename"])

	_, err = Decode([]byte("{not json"))
	assert.Error(t, err)
}

func TestValidateIdentifier(t *testing.T) {
	t.Parallel()

	valid := []string{"_migrations", "migrations", "users_2", "T"}
	invalid := []string{"", "2users", "users;drop", "my-table", "a b"}

	for _, name := range valid {
		assert.NoError(t, ValidateIdentifier(name), name)
	}

	for _, name := range invalid {
		err := ValidateIdentifier(name)
		assert.Error(t, err, name)
		assert.True(t, errors.Is(err, ErrInvalidIdentifier))
	}
}
