package mongostore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestPrefixFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, prefixFilter(""))
	assert.Equal(t, bson.M{"_id": bson.M{"$regex": `^students/`}}, prefixFilter("students/"))
	assert.Equal(t, bson.M{"_id": bson.M{"$regex": `^a\.b`}}, prefixFilter("a.b"))
}
