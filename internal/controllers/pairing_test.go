package controllers

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duowatch/duowatch/internal/apperr"
)

func TestPairLifecycle(t *testing.T) {
	db := testDB(t)
	ctrl := NewPairingController(db, testLogger())
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	pair, err := ctrl.Create(alice.ID)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), pair.Code)
	assert.True(t, pair.Open())

	joined, err := ctrl.Join(bob.ID, pair.Code)
	require.NoError(t, err)
	assert.False(t, joined.Open())

	partner, err := ctrl.Partner(alice.ID)
	require.NoError(t, err)
	require.NotNil(t, partner)
	assert.Equal(t, bob.ID, *partner)

	partner, err = ctrl.Partner(bob.ID)
	require.NoError(t, err)
	require.NotNil(t, partner)
	assert.Equal(t, alice.ID, *partner)
}

func TestCreateWhileAlreadyPaired(t *testing.T) {
	db := testDB(t)
	ctrl := NewPairingController(db, testLogger())
	alice := createTestUser(t, db, "alice@example.com")

	_, err := ctrl.Create(alice.ID)
	require.NoError(t, err)

	_, err = ctrl.Create(alice.ID)
	require.Error(t, err)
	assert.Equal(t, "already_paired", apperr.From(err).Code)
}

func TestJoinOwnPair(t *testing.T) {
	db := testDB(t)
	ctrl := NewPairingController(db, testLogger())
	alice := createTestUser(t, db, "alice@example.com")

	pair, err := ctrl.Create(alice.ID)
	require.NoError(t, err)

	_, err = ctrl.Join(alice.ID, pair.Code)
	require.Error(t, err)
	assert.Equal(t, "self_join", apperr.From(err).Code)
}

func TestJoinUnknownCode(t *testing.T) {
	db := testDB(t)
	ctrl := NewPairingController(db, testLogger())
	bob := createTestUser(t, db, "bob@example.com")

	_, err := ctrl.Join(bob.ID, "000000")
	require.Error(t, err)
	appErr := apperr.From(err)
	assert.Equal(t, 404, appErr.Status)
	assert.Equal(t, "pair_not_found", appErr.Code)
}

func TestJoinWhilePaired(t *testing.T) {
	db := testDB(t)
	ctrl := NewPairingController(db, testLogger())
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	carol := createTestUser(t, db, "carol@example.com")

	pair, err := ctrl.Create(alice.ID)
	require.NoError(t, err)
	_, err = ctrl.Join(bob.ID, pair.Code)
	require.NoError(t, err)

	other, err := ctrl.Create(carol.ID)
	require.NoError(t, err)

	_, err = ctrl.Join(bob.ID, other.Code)
	require.Error(t, err)
	assert.Equal(t, "already_paired", apperr.From(err).Code)
}

func TestJoinerLeaveReopensPair(t *testing.T) {
	db := testDB(t)
	ctrl := NewPairingController(db, testLogger())
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	pair, err := ctrl.Create(alice.ID)
	require.NoError(t, err)
	_, err = ctrl.Join(bob.ID, pair.Code)
	require.NoError(t, err)

	require.NoError(t, ctrl.Leave(bob.ID))

	reopened, err := ctrl.Get(alice.ID)
	require.NoError(t, err)
	require.NotNil(t, reopened)
	assert.True(t, reopened.Open())
	assert.Equal(t, pair.Code, reopened.Code)

	gone, err := ctrl.Get(bob.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	// The same code admits a joiner again
	_, err = ctrl.Join(bob.ID, pair.Code)
	require.NoError(t, err)
}

func TestInitiatorLeaveDeletesPair(t *testing.T) {
	db := testDB(t)
	ctrl := NewPairingController(db, testLogger())
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	pair, err := ctrl.Create(alice.ID)
	require.NoError(t, err)
	_, err = ctrl.Join(bob.ID, pair.Code)
	require.NoError(t, err)

	require.NoError(t, ctrl.Leave(alice.ID))

	for _, id := range []string{alice.ID, bob.ID} {
		got, err := ctrl.Get(id)
		require.NoError(t, err)
		assert.Nil(t, got)
	}
}

func TestLeaveWhileUnpaired(t *testing.T) {
	db := testDB(t)
	ctrl := NewPairingController(db, testLogger())
	alice := createTestUser(t, db, "alice@example.com")

	err := ctrl.Leave(alice.ID)
	require.Error(t, err)
	assert.Equal(t, "not_paired", apperr.From(err).Code)
}
