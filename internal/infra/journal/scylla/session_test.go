package scylla

import (
	"context"
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConsistency(t *testing.T) {
	c, err := ParseConsistency("LOCAL_QUORUM")
	require.NoError(t, err)
	assert.Equal(t, gocql.LocalQuorum, c)

	c, err = ParseConsistency("")
	require.NoError(t, err)
	assert.Equal(t, gocql.Quorum, c)

	_, err = ParseConsistency("most")
	assert.Error(t, err)
}

func TestNewSession_RejectsBadKeyspace(t *testing.T) {
	_, err := NewSession(context.Background(), Options{Hosts: []string{"127.0.0.1"}, Keyspace: "bad-name;"}, nil)
	assert.ErrorContains(t, err, "invalid keyspace name")
}
