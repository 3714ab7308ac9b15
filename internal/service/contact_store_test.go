package service

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesting-console/internal/adapter"
	"github.com/vesting-console/internal/adapter/adaptertest"
	apperrors "github.com/vesting-console/internal/errors"
	"github.com/vesting-console/internal/logging"
	"github.com/vesting-console/internal/models"
	"github.com/vesting-console/internal/types"
)

const testWallet = "0x00000000000000000000000000000000000000aa"

func newTestStore(t *testing.T, reconcile bool) (*ContactStore, *adaptertest.ContactsServer, *NotificationQueue) {
	t.Helper()

	srv := adaptertest.NewContactsServer()
	t.Cleanup(srv.Close)

	client, err := adapter.NewContactsClient(&adapter.ContactsClientConfig{
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
		Logger:  logging.Discard(),
	})
	require.NoError(t, err)

	queue := NewNotificationQueue(20)
	store := NewContactStore(client, queue, &ContactStoreConfig{
		ReconcileAfterMutation: reconcile,
		Logger:                 logging.Discard(),
	})
	return store, srv, queue
}

func levels(notifications []types.Notification) []types.NotificationLevel {
	out := make([]types.NotificationLevel, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, n.Level)
	}
	return out
}

func TestContactStore_LoadWithoutWallet(t *testing.T) {
	store, srv, queue := newTestStore(t, false)

	require.NoError(t, store.LoadContacts(context.Background()))
	assert.Empty(t, store.Contacts())
	assert.Equal(t, 0, srv.Calls("GET /"), "no request without a wallet")
	assert.Equal(t, 0, queue.Len())
}

func TestContactStore_SetWalletLoadsOwnContacts(t *testing.T) {
	store, srv, _ := newTestStore(t, false)
	srv.Seed(
		models.Worker{FullName: "Ann", WalletAddress: "0x1", SavedBy: testWallet, IsActive: true},
		models.Worker{FullName: "Eve", WalletAddress: "0x2", SavedBy: "0xsomeoneelse", IsActive: true},
	)

	require.NoError(t, store.SetWallet(context.Background(), testWallet))

	contacts := store.Contacts()
	require.Len(t, contacts, 1)
	assert.Equal(t, "Ann", contacts[0].FullName)
	assert.False(t, store.Loading())
	assert.NoError(t, store.Err())
}

func TestContactStore_SetSameWalletIsNoop(t *testing.T) {
	store, srv, _ := newTestStore(t, false)
	ctx := context.Background()

	require.NoError(t, store.SetWallet(ctx, testWallet))
	require.NoError(t, store.SetWallet(ctx, strings.ToUpper(testWallet[:2])+testWallet[2:]))
	assert.Equal(t, 1, srv.Calls("GET /"))
}

func TestContactStore_WalletChangeClearsList(t *testing.T) {
	store, srv, _ := newTestStore(t, false)
	srv.Seed(models.Worker{FullName: "Ann", WalletAddress: "0x1", SavedBy: testWallet, IsActive: true})
	ctx := context.Background()

	require.NoError(t, store.SetWallet(ctx, testWallet))
	require.Len(t, store.Contacts(), 1)

	require.NoError(t, store.SetWallet(ctx, "0xother"))
	assert.Empty(t, store.Contacts())
	assert.Equal(t, "0xother", store.Wallet())
}

func TestContactStore_MountLoadsOnce(t *testing.T) {
	store, srv, _ := newTestStore(t, false)
	require.NoError(t, store.SetWallet(context.Background(), testWallet))

	require.NoError(t, store.Mount(context.Background()))
	require.NoError(t, store.Mount(context.Background()))
	assert.Equal(t, 2, srv.Calls("GET /"), "one load for the wallet, one for the first mount")
}

func TestContactStore_CreateStampsOwner(t *testing.T) {
	store, srv, queue := newTestStore(t, false)
	ctx := context.Background()
	require.NoError(t, store.SetWallet(ctx, testWallet))
	before := len(store.Contacts())

	created, err := store.CreateContact(ctx, &models.WorkerInput{
		FullName:      "Ann",
		WalletAddress: "0xabc",
		Label:         "Dev",
		SavedBy:       "0xspoofed",
	})
	require.NoError(t, err)

	assert.Equal(t, testWallet, created.SavedBy)
	contacts := store.Contacts()
	require.Len(t, contacts, before+1)
	assert.Equal(t, "0xabc", contacts[len(contacts)-1].WalletAddress)
	assert.Equal(t, testWallet, srv.Workers()[0].SavedBy)

	notifications := queue.Drain()
	require.Len(t, notifications, 1)
	assert.Equal(t, types.NotificationSuccess, notifications[0].Level)
	assert.Equal(t, "Contact created successfully", notifications[0].Message)
}

func TestContactStore_CreateWithoutWallet(t *testing.T) {
	store, srv, queue := newTestStore(t, false)

	_, err := store.CreateContact(context.Background(), &models.WorkerInput{WalletAddress: "0xabc"})

	var valErr *apperrors.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "wallet", valErr.Field)
	assert.Equal(t, 0, srv.Calls("POST /"))
	assert.Equal(t, []types.NotificationLevel{types.NotificationError}, levels(queue.Drain()))
}

func TestContactStore_CreateDoesNotDeduplicate(t *testing.T) {
	store, _, _ := newTestStore(t, false)
	ctx := context.Background()
	require.NoError(t, store.SetWallet(ctx, testWallet))

	input := &models.WorkerInput{FullName: "Ann", WalletAddress: "0xabc"}
	_, err := store.CreateContact(ctx, input)
	require.NoError(t, err)
	_, err = store.CreateContact(ctx, input)
	require.NoError(t, err)

	assert.Len(t, store.Contacts(), 2)
}

func TestContactStore_CreateRejectedByServer(t *testing.T) {
	store, srv, queue := newTestStore(t, false)
	ctx := context.Background()
	require.NoError(t, store.SetWallet(ctx, testWallet))

	_, err := store.CreateContact(ctx, &models.WorkerInput{FullName: "No address"})

	var reqErr *apperrors.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusBadRequest, reqErr.Status)
	assert.Empty(t, store.Contacts())
	assert.Equal(t, err, store.Err())
	assert.Empty(t, srv.Workers())

	notifications := queue.Drain()
	require.Len(t, notifications, 1)
	assert.Contains(t, notifications[0].Message, "walletAddress and savedBy are required")
}

func TestContactStore_Update(t *testing.T) {
	store, srv, queue := newTestStore(t, false)
	srv.Seed(models.Worker{ID: "w1", FullName: "Ann", WalletAddress: "0x1", Label: "Dev", SavedBy: testWallet, IsActive: true})
	ctx := context.Background()
	require.NoError(t, store.SetWallet(ctx, testWallet))

	label := "Lead"
	updated, err := store.UpdateContact(ctx, "w1", &models.WorkerPatch{Label: &label})
	require.NoError(t, err)
	assert.Equal(t, "Lead", updated.Label)

	local, ok := store.FindContact("w1")
	require.True(t, ok)
	assert.Equal(t, "Lead", local.Label)
	assert.Equal(t, "Ann", local.FullName)
	assert.Equal(t, []types.NotificationLevel{types.NotificationSuccess}, levels(queue.Drain()))
}

func TestContactStore_UpdateUnknownID(t *testing.T) {
	store, _, queue := newTestStore(t, false)
	ctx := context.Background()
	require.NoError(t, store.SetWallet(ctx, testWallet))

	name := "x"
	_, err := store.UpdateContact(ctx, "missing", &models.WorkerPatch{FullName: &name})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, []types.NotificationLevel{types.NotificationError}, levels(queue.Drain()))
}

func TestContactStore_Delete(t *testing.T) {
	store, srv, _ := newTestStore(t, false)
	srv.Seed(
		models.Worker{ID: "w1", WalletAddress: "0x1", SavedBy: testWallet, IsActive: true},
		models.Worker{ID: "w2", WalletAddress: "0x2", SavedBy: testWallet, IsActive: true},
	)
	ctx := context.Background()
	require.NoError(t, store.SetWallet(ctx, testWallet))

	require.NoError(t, store.DeleteContact(ctx, "w1"))

	contacts := store.Contacts()
	require.Len(t, contacts, 1)
	assert.Equal(t, "w2", contacts[0].ID)
}

func TestContactStore_DeleteAbsentID(t *testing.T) {
	store, srv, queue := newTestStore(t, false)
	srv.Seed(models.Worker{ID: "w1", WalletAddress: "0x1", SavedBy: testWallet, IsActive: true})
	ctx := context.Background()
	require.NoError(t, store.SetWallet(ctx, testWallet))
	before := store.Contacts()

	err := store.DeleteContact(ctx, "not-there")

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, before, store.Contacts())
	assert.Equal(t, []types.NotificationLevel{types.NotificationError}, levels(queue.Drain()))
}

func TestContactStore_SearchReplacesList(t *testing.T) {
	store, srv, queue := newTestStore(t, false)
	srv.Seed(
		models.Worker{FullName: "Ann", WalletAddress: "0x1", SavedBy: testWallet, IsActive: true},
		models.Worker{FullName: "Bob", WalletAddress: "0x2", SavedBy: testWallet, IsActive: true},
		models.Worker{FullName: "Annika", WalletAddress: "0x3", SavedBy: "0xother", IsActive: true},
	)
	ctx := context.Background()
	require.NoError(t, store.SetWallet(ctx, testWallet))

	require.NoError(t, store.SearchContacts(ctx, "ann"))
	contacts := store.Contacts()
	require.Len(t, contacts, 1)
	assert.Equal(t, "Ann", contacts[0].FullName)
	assert.Equal(t, 0, queue.Len(), "successful searches are silent")

	require.NoError(t, store.SearchContacts(ctx, "   "))
	assert.Len(t, store.Contacts(), 2, "blank query restores the full list")
}

func TestContactStore_SearchEmptyEquivalentToLoad(t *testing.T) {
	store, srv, _ := newTestStore(t, false)
	srv.Seed(models.Worker{FullName: "Ann", WalletAddress: "0x1", SavedBy: testWallet, IsActive: true})
	ctx := context.Background()
	require.NoError(t, store.SetWallet(ctx, testWallet))

	require.NoError(t, store.LoadContacts(ctx))
	loaded := store.Contacts()

	require.NoError(t, store.SearchContacts(ctx, ""))
	assert.Equal(t, loaded, store.Contacts())
	assert.Equal(t, 0, srv.Calls("GET /search"))
}

func TestContactStore_LoadFailureKeepsList(t *testing.T) {
	store, srv, queue := newTestStore(t, false)
	srv.Seed(models.Worker{FullName: "Ann", WalletAddress: "0x1", SavedBy: testWallet, IsActive: true})
	ctx := context.Background()
	require.NoError(t, store.SetWallet(ctx, testWallet))

	srv.FailNext(http.StatusInternalServerError, "database down")
	err := store.LoadContacts(ctx)

	require.Error(t, err)
	assert.Len(t, store.Contacts(), 1)
	snapshot := store.Snapshot()
	assert.Contains(t, snapshot.Error, "database down")
	assert.False(t, snapshot.Loading)

	notifications := queue.Drain()
	require.Len(t, notifications, 1)
	assert.Equal(t, "Failed to load contacts: database down", notifications[0].Message)

	require.NoError(t, store.LoadContacts(ctx))
	assert.NoError(t, store.Err(), "next success clears the error")
}

func TestContactStore_CountActive(t *testing.T) {
	store, srv, _ := newTestStore(t, false)
	srv.Seed(
		models.Worker{WalletAddress: "0x1", SavedBy: testWallet, IsActive: true},
		models.Worker{WalletAddress: "0x2", SavedBy: testWallet, IsActive: false},
	)
	ctx := context.Background()

	_, err := store.CountActive(ctx)
	require.Error(t, err)

	require.NoError(t, store.SetWallet(ctx, testWallet))
	count, err := store.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestContactStore_ReconcileAfterMutation(t *testing.T) {
	store, srv, _ := newTestStore(t, true)
	ctx := context.Background()
	require.NoError(t, store.SetWallet(ctx, testWallet))

	// Created behind the store's back; reconcile picks it up.
	srv.Seed(models.Worker{FullName: "Other tab", WalletAddress: "0x9", SavedBy: testWallet, IsActive: true})

	_, err := store.CreateContact(ctx, &models.WorkerInput{FullName: "Ann", WalletAddress: "0x1"})
	require.NoError(t, err)

	assert.Len(t, store.Contacts(), 2)
	assert.Equal(t, 2, srv.Calls("GET /"))
}

func TestContactStore_CreateGrowsListByOne(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("create appends exactly one contact owned by the wallet", prop.ForAll(
		func(seeded int, address string) bool {
			store, srv, _ := newTestStore(t, false)
			for i := 0; i < seeded; i++ {
				srv.Seed(models.Worker{WalletAddress: "0xseed", SavedBy: testWallet, IsActive: true})
			}
			ctx := context.Background()
			if err := store.SetWallet(ctx, testWallet); err != nil {
				return false
			}

			before := len(store.Contacts())
			created, err := store.CreateContact(ctx, &models.WorkerInput{WalletAddress: "0x" + address})
			if err != nil {
				return false
			}
			after := store.Contacts()
			return len(after) == before+1 &&
				after[len(after)-1].WalletAddress == "0x"+address &&
				created.SavedBy == testWallet
		},
		gen.IntRange(0, 5),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
