// internal/cart/store_test.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/storefront/internal/i18n"
	"github.com/javajoker/storefront/internal/models"
	"github.com/javajoker/storefront/internal/storage"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) FetchCart(ctx context.Context, ownerID, locale string) ([]models.CartLine, error) {
	args := m.Called(ctx, ownerID, locale)
	lines, _ := args.Get(0).([]models.CartLine)
	return lines, args.Error(1)
}

func (m *mockGateway) UpsertCartLine(ctx context.Context, line models.LineUpsert, locale string) error {
	args := m.Called(ctx, line, locale)
	return args.Error(0)
}

func (m *mockGateway) ClearCart(ctx context.Context, ownerID, locale, authToken string) error {
	args := m.Called(ctx, ownerID, locale, authToken)
	return args.Error(0)
}

func product(id, price string) models.ProductSnapshot {
	return models.ProductSnapshot{
		ID:     id,
		Name:   models.LocalizedText{EN: "Product " + id, AR: "منتج " + id},
		Price:  price,
		Images: []string{"products/" + id + ".jpg"},
	}
}

type StoreTestSuite struct {
	suite.Suite
	ctx     context.Context
	gateway *mockGateway
	storage *storage.Memory
	store   *Store
	ids     int
}

func (suite *StoreTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.gateway = &mockGateway{}
	suite.storage = storage.NewMemory()
	suite.ids = 0
	suite.store = suite.newStore()
}

func (suite *StoreTestSuite) newStore(opts ...Option) *Store {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	base := []Option{
		WithLogger(logrus.NewEntry(logger)),
		WithIDGenerator(func() string {
			suite.ids++
			return fmt.Sprintf("line-%d", suite.ids)
		}),
	}
	return NewStore(suite.ctx, suite.gateway, suite.storage, append(base, opts...)...)
}

func (suite *StoreTestSuite) login(userID string) {
	require.NoError(suite.T(), storage.SetString(suite.ctx, suite.storage, storage.KeyToken, "token-"+userID))
	require.NoError(suite.T(), storage.SetString(suite.ctx, suite.storage, storage.KeyUserID, userID))
}

func (suite *StoreTestSuite) TestAddNewProductAsGuest() {
	suite.store.AddLine(suite.ctx, product("5", "4.50"), "", "en")

	state := suite.store.State()
	require.Len(suite.T(), state.Lines, 1)
	assert.Equal(suite.T(), "5", state.Lines[0].ProductID)
	assert.Equal(suite.T(), 1, state.Lines[0].Quantity)
	assert.Equal(suite.T(), models.OwnerGuest, state.Lines[0].OwnerID)
	assert.Equal(suite.T(), "4.50", state.Lines[0].UnitPrice)
	assert.Equal(suite.T(), "products/5.jpg", state.Lines[0].Image)
	assert.False(suite.T(), state.IsLoading)
	assert.Nil(suite.T(), state.Error)
	suite.gateway.AssertNotCalled(suite.T(), "UpsertCartLine", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *StoreTestSuite) TestRepeatedAddsIncrementQuantity() {
	for i := 0; i < 4; i++ {
		suite.store.AddLine(suite.ctx, product("5", "4.50"), "", "en")
	}

	lines := suite.store.Lines()
	require.Len(suite.T(), lines, 1)
	assert.Equal(suite.T(), 4, lines[0].Quantity)
	assert.Equal(suite.T(), "line-1", lines[0].ID)
	assert.Equal(suite.T(), 4, suite.store.LineCount())
}

func (suite *StoreTestSuite) TestAddIgnoresProductWithoutID() {
	suite.store.AddLine(suite.ctx, product("", "1"), "", "en")
	assert.Empty(suite.T(), suite.store.Lines())
}

func (suite *StoreTestSuite) TestSetQuantity() {
	suite.store.AddLine(suite.ctx, product("5", "4.50"), "", "en")
	suite.store.AddLine(suite.ctx, product("9", "1.00"), "", "en")

	suite.store.SetQuantity(suite.ctx, "5", 3, "", "en")
	lines := suite.store.Lines()
	require.Len(suite.T(), lines, 2)
	assert.Equal(suite.T(), 3, lines[0].Quantity)

	suite.store.SetQuantity(suite.ctx, "5", 0, "", "en")
	lines = suite.store.Lines()
	require.Len(suite.T(), lines, 1)
	assert.Equal(suite.T(), "9", lines[0].ProductID)

	suite.store.SetQuantity(suite.ctx, "9", -2, "", "en")
	assert.Empty(suite.T(), suite.store.Lines())
}

func (suite *StoreTestSuite) TestRemoveAbsentProductIsNoop() {
	suite.login("u1")
	suite.store.AddLine(suite.ctx, product("5", "4.50"), "", "en")
	before := suite.store.State()

	suite.store.RemoveLine(suite.ctx, "404", "u1", "en")

	assert.Equal(suite.T(), before, suite.store.State())
	suite.gateway.AssertNotCalled(suite.T(), "UpsertCartLine", mock.Anything, mock.Anything, mock.Anything)
	suite.gateway.AssertNotCalled(suite.T(), "FetchCart", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *StoreTestSuite) TestRemoveLineWithOwnerSyncs() {
	suite.login("u1")
	suite.store.AddLine(suite.ctx, product("5", "4.50"), "", "en")

	suite.gateway.On("UpsertCartLine", mock.Anything, models.LineUpsert{OwnerID: "u1", ProductID: "5", Quantity: 0}, "en").Return(nil).Once()
	suite.gateway.On("FetchCart", mock.Anything, "u1", "en").Return([]models.CartLine{}, nil).Once()

	suite.store.RemoveLine(suite.ctx, "5", "u1", "en")

	assert.Empty(suite.T(), suite.store.Lines())
	assert.Nil(suite.T(), suite.store.State().Error)
	suite.gateway.AssertExpectations(suite.T())
}

func (suite *StoreTestSuite) TestReconcileMergesGuestLines() {
	suite.login("user")
	suite.store.AddLine(suite.ctx, product("5", "4.50"), "", "en")
	suite.store.AddLine(suite.ctx, product("9", "1.00"), "", "en")
	suite.store.SetQuantity(suite.ctx, "9", 3, "", "en")

	remote := []models.CartLine{{ID: "r-5", ProductID: "5", OwnerID: "user", UnitPrice: "4.50", Quantity: 2}}
	suite.gateway.On("FetchCart", mock.Anything, "user", "en").Return(remote, nil).Once()
	suite.gateway.On("UpsertCartLine", mock.Anything, models.LineUpsert{OwnerID: "user", ProductID: "5", Quantity: 2}, "en").Return(nil).Once()
	suite.gateway.On("UpsertCartLine", mock.Anything, models.LineUpsert{OwnerID: "user", ProductID: "9", Quantity: 3}, "en").Return(nil).Once()

	suite.store.Reconcile(suite.ctx, "user", "en")

	lines := suite.store.Lines()
	require.Len(suite.T(), lines, 2)
	assert.Equal(suite.T(), "r-5", lines[0].ID)
	assert.Equal(suite.T(), 2, lines[0].Quantity)
	assert.Equal(suite.T(), "9", lines[1].ProductID)
	assert.Equal(suite.T(), 3, lines[1].Quantity)
	assert.Equal(suite.T(), "user", lines[1].OwnerID)
	assert.Nil(suite.T(), suite.store.State().Error)
	suite.gateway.AssertExpectations(suite.T())
}

func (suite *StoreTestSuite) TestReconcilePushesOnlyCarriedLinesWhenRepushDisabled() {
	suite.store = suite.newStore(WithRepushRemote(false))
	suite.login("user")
	suite.store.AddLine(suite.ctx, product("9", "1.00"), "", "en")

	remote := []models.CartLine{{ID: "r-5", ProductID: "5", Quantity: 2}}
	suite.gateway.On("FetchCart", mock.Anything, "user", "en").Return(remote, nil).Once()
	suite.gateway.On("UpsertCartLine", mock.Anything, models.LineUpsert{OwnerID: "user", ProductID: "9", Quantity: 1}, "en").Return(nil).Once()

	suite.store.Reconcile(suite.ctx, "user", "en")

	lines := suite.store.Lines()
	require.Len(suite.T(), lines, 2)
	assert.Equal(suite.T(), "user", lines[0].OwnerID)
	suite.gateway.AssertExpectations(suite.T())
	suite.gateway.AssertNumberOfCalls(suite.T(), "UpsertCartLine", 1)
}

func (suite *StoreTestSuite) TestReconcileDropsForeignAndEmptyLines() {
	suite.login("user")
	require.NoError(suite.T(), storage.SetJSON(suite.ctx, suite.storage, storage.KeyCart, persistedCart{Lines: []models.CartLine{
		{ID: "a", ProductID: "7", OwnerID: "someone-else", Quantity: 1},
	}}))
	suite.store = suite.newStore()

	remote := []models.CartLine{
		{ID: "r-1", ProductID: "1", Quantity: 0},
		{ID: "r-2", ProductID: "2", Quantity: 1},
		{ID: "r-2b", ProductID: "2", Quantity: 5},
	}
	suite.gateway.On("FetchCart", mock.Anything, "user", "en").Return(remote, nil).Once()
	suite.gateway.On("UpsertCartLine", mock.Anything, mock.Anything, "en").Return(nil)

	suite.store.Reconcile(suite.ctx, "user", "en")

	lines := suite.store.Lines()
	require.Len(suite.T(), lines, 1)
	assert.Equal(suite.T(), "r-2", lines[0].ID)
	assert.Equal(suite.T(), "user", lines[0].OwnerID)
}

func (suite *StoreTestSuite) TestReconcileWithoutTokenIsNoop() {
	suite.store.AddLine(suite.ctx, product("5", "4.50"), "", "en")

	suite.store.Reconcile(suite.ctx, "user", "en")
	suite.store.Reconcile(suite.ctx, "", "en")

	assert.Len(suite.T(), suite.store.Lines(), 1)
	suite.gateway.AssertNotCalled(suite.T(), "FetchCart", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *StoreTestSuite) TestReconcileFailureKeepsLines() {
	suite.login("user")
	suite.store.AddLine(suite.ctx, product("5", "4.50"), "", "en")
	suite.gateway.On("FetchCart", mock.Anything, "user", "en").Return(nil, errors.New("gateway timeout")).Once()

	suite.store.Reconcile(suite.ctx, "user", "en")

	state := suite.store.State()
	assert.Len(suite.T(), state.Lines, 1)
	require.NotNil(suite.T(), state.Error)
	assert.Equal(suite.T(), models.ErrorKindGeneric, state.Error.Kind)
	assert.Contains(suite.T(), state.Error.Message, "gateway timeout")
	assert.False(suite.T(), state.IsLoading)
}

func (suite *StoreTestSuite) TestPushConcurrencyReachesSameState() {
	suite.store = suite.newStore(WithPushConcurrency(4))
	suite.login("user")
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		suite.store.AddLine(suite.ctx, product(id, "1.00"), "", "en")
	}

	suite.gateway.On("FetchCart", mock.Anything, "user", "en").Return([]models.CartLine{}, nil).Once()
	suite.gateway.On("UpsertCartLine", mock.Anything, mock.Anything, "en").Return(nil)

	suite.store.Reconcile(suite.ctx, "user", "en")

	lines := suite.store.Lines()
	require.Len(suite.T(), lines, 5)
	for i, line := range lines {
		assert.Equal(suite.T(), fmt.Sprint(i+1), line.ProductID)
		assert.Equal(suite.T(), "user", line.OwnerID)
	}
	suite.gateway.AssertNumberOfCalls(suite.T(), "UpsertCartLine", 5)
}

func (suite *StoreTestSuite) TestFailedUpsertRestoresPreviousLines() {
	suite.login("u1")
	suite.store.AddLine(suite.ctx, product("9", "1.00"), "", "en")
	suite.store.AddLine(suite.ctx, product("5", "4.50"), "", "en")
	before := suite.store.Lines()

	suite.gateway.On("UpsertCartLine", mock.Anything, models.LineUpsert{OwnerID: "u1", ProductID: "7", Quantity: 1}, "en").
		Return(errors.New("boom")).Once()

	suite.store.AddLine(suite.ctx, product("7", "2.00"), "u1", "en")

	state := suite.store.State()
	assert.Equal(suite.T(), before, state.Lines)
	require.NotNil(suite.T(), state.Error)
	assert.Equal(suite.T(), models.ErrorKindGeneric, state.Error.Kind)
	assert.Equal(suite.T(), "boom", state.Error.Message)
	assert.False(suite.T(), state.IsLoading)
	suite.gateway.AssertNotCalled(suite.T(), "FetchCart", mock.Anything, mock.Anything, mock.Anything)

	var saved persistedCart
	found, err := storage.GetJSON(suite.ctx, suite.storage, storage.KeyCart, &saved)
	require.NoError(suite.T(), err)
	require.True(suite.T(), found)
	assert.Equal(suite.T(), before, saved.Lines)
}

func (suite *StoreTestSuite) TestFailedIncrementRestoresQuantity() {
	suite.login("u1")
	suite.store.AddLine(suite.ctx, product("5", "4.50"), "", "en")

	suite.gateway.On("UpsertCartLine", mock.Anything, mock.Anything, "en").
		Return(fmt.Errorf("upsert: %w", ErrInvalidOwner)).Once()

	suite.store.AddLine(suite.ctx, product("5", "4.50"), "u1", "en")

	state := suite.store.State()
	require.Len(suite.T(), state.Lines, 1)
	assert.Equal(suite.T(), 1, state.Lines[0].Quantity)
	require.NotNil(suite.T(), state.Error)
	assert.Equal(suite.T(), models.ErrorKindInvalidOwner, state.Error.Kind)
	assert.Equal(suite.T(), i18n.T("en", i18n.KeyCartInvalidOwner), state.Error.Message)
}

func (suite *StoreTestSuite) TestReconcileFailureAfterUpsertDoesNotRollBack() {
	suite.login("u1")
	suite.gateway.On("UpsertCartLine", mock.Anything, mock.Anything, "ar").Return(nil).Once()
	suite.gateway.On("FetchCart", mock.Anything, "u1", "ar").Return(nil, ErrSyncUnsupported).Once()

	suite.store.AddLine(suite.ctx, product("5", "4.50"), "u1", "ar")

	state := suite.store.State()
	require.Len(suite.T(), state.Lines, 1)
	assert.Equal(suite.T(), "u1", state.Lines[0].OwnerID)
	require.NotNil(suite.T(), state.Error)
	assert.Equal(suite.T(), models.ErrorKindSyncUnsupported, state.Error.Kind)
	assert.Equal(suite.T(), i18n.T("ar", i18n.KeyCartSyncUnsupported), state.Error.Message)
	assert.False(suite.T(), state.IsLoading)
}

func (suite *StoreTestSuite) TestNextOperationClearsError() {
	suite.login("u1")
	suite.gateway.On("UpsertCartLine", mock.Anything, mock.Anything, "en").Return(errors.New("boom")).Once()
	suite.store.AddLine(suite.ctx, product("5", "4.50"), "u1", "en")
	require.NotNil(suite.T(), suite.store.State().Error)

	suite.store.AddLine(suite.ctx, product("5", "4.50"), "", "en")
	assert.Nil(suite.T(), suite.store.State().Error)
}

func (suite *StoreTestSuite) TestClearWithOwnerUsesStoredToken() {
	suite.login("u1")
	suite.store.AddLine(suite.ctx, product("5", "4.50"), "", "en")

	suite.gateway.On("ClearCart", mock.Anything, "u1", "en", "token-u1").Return(nil).Once()
	suite.gateway.On("FetchCart", mock.Anything, "u1", "en").Return([]models.CartLine{}, nil).Once()

	suite.store.Clear(suite.ctx, "u1", "en")

	assert.Empty(suite.T(), suite.store.Lines())
	assert.Nil(suite.T(), suite.store.State().Error)
	suite.gateway.AssertExpectations(suite.T())
}

func (suite *StoreTestSuite) TestFailedClearRestoresLines() {
	suite.login("u1")
	suite.store.AddLine(suite.ctx, product("5", "4.50"), "", "en")
	suite.store.AddLine(suite.ctx, product("9", "1.00"), "", "en")
	before := suite.store.Lines()

	suite.gateway.On("ClearCart", mock.Anything, "u1", "en", "token-u1").Return(errors.New("unavailable")).Once()

	suite.store.Clear(suite.ctx, "u1", "en")

	assert.Equal(suite.T(), before, suite.store.Lines())
	require.NotNil(suite.T(), suite.store.State().Error)
}

func (suite *StoreTestSuite) upsertsFor(productID string) int {
	n := 0
	for _, call := range suite.gateway.Calls {
		if call.Method != "UpsertCartLine" {
			continue
		}
		if call.Arguments.Get(1).(models.LineUpsert).ProductID == productID {
			n++
		}
	}
	return n
}

func (suite *StoreTestSuite) TestFailedUpsertKeepsConcurrentProductAndSkipsBusyPush() {
	suite.login("u1")
	started := make(chan struct{})
	unblock := make(chan struct{})

	suite.gateway.On("UpsertCartLine", mock.Anything, models.LineUpsert{OwnerID: "u1", ProductID: "7", Quantity: 1}, "en").
		Run(func(mock.Arguments) {
			close(started)
			<-unblock
		}).
		Return(errors.New("boom")).Once()
	suite.gateway.On("UpsertCartLine", mock.Anything, models.LineUpsert{OwnerID: "u1", ProductID: "9", Quantity: 1}, "en").Return(nil)
	suite.gateway.On("FetchCart", mock.Anything, "u1", "en").Return([]models.CartLine{}, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		suite.store.AddLine(suite.ctx, product("7", "2.00"), "u1", "en")
	}()
	<-started

	suite.store.AddLine(suite.ctx, product("9", "1.00"), "u1", "en")
	require.Len(suite.T(), suite.store.Lines(), 2)

	close(unblock)
	<-done

	state := suite.store.State()
	require.Len(suite.T(), state.Lines, 1)
	assert.Equal(suite.T(), "9", state.Lines[0].ProductID)
	assert.Equal(suite.T(), "u1", state.Lines[0].OwnerID)
	require.NotNil(suite.T(), state.Error)
	assert.Equal(suite.T(), "boom", state.Error.Message)
	assert.False(suite.T(), state.IsLoading)
	assert.Equal(suite.T(), 1, suite.upsertsFor("7"))
	assert.Equal(suite.T(), 2, suite.upsertsFor("9"))
}

func (suite *StoreTestSuite) TestFailedClearRestoresLinesAroundConcurrentReconcile() {
	suite.login("u1")
	suite.store.AddLine(suite.ctx, product("5", "4.50"), "", "en")
	suite.store.AddLine(suite.ctx, product("9", "1.00"), "", "en")
	before := suite.store.Lines()

	started := make(chan struct{})
	unblock := make(chan struct{})
	suite.gateway.On("ClearCart", mock.Anything, "u1", "en", "token-u1").
		Run(func(mock.Arguments) {
			close(started)
			<-unblock
		}).
		Return(errors.New("unavailable")).Once()
	remote := []models.CartLine{{ID: "r-3", ProductID: "3", OwnerID: "u1", UnitPrice: "2.00", Quantity: 2}}
	suite.gateway.On("FetchCart", mock.Anything, "u1", "en").Return(remote, nil).Once()
	suite.gateway.On("UpsertCartLine", mock.Anything, models.LineUpsert{OwnerID: "u1", ProductID: "3", Quantity: 2}, "en").Return(nil).Once()

	done := make(chan struct{})
	go func() {
		defer close(done)
		suite.store.Clear(suite.ctx, "u1", "en")
	}()
	<-started

	suite.store.Reconcile(suite.ctx, "u1", "en")
	close(unblock)
	<-done

	lines := suite.store.Lines()
	require.Len(suite.T(), lines, 3)
	assert.Equal(suite.T(), before, lines[:2])
	assert.Equal(suite.T(), "r-3", lines[2].ID)
	require.NotNil(suite.T(), suite.store.State().Error)
	suite.gateway.AssertExpectations(suite.T())
}

func (suite *StoreTestSuite) TestLogoutMakesNoRemoteCalls() {
	suite.login("u1")
	suite.store.AddLine(suite.ctx, product("5", "4.50"), "", "en")

	suite.store.Logout()

	state := suite.store.State()
	assert.Empty(suite.T(), state.Lines)
	assert.Nil(suite.T(), state.Error)
	assert.Empty(suite.T(), suite.gateway.Calls)
}

func (suite *StoreTestSuite) TestStateSurvivesRestart() {
	suite.store.AddLine(suite.ctx, product("5", "4.50"), "", "en")
	suite.store.AddLine(suite.ctx, product("5", "4.50"), "", "en")
	suite.store.AddLine(suite.ctx, product("9", "bad"), "", "en")

	restored := suite.newStore()

	assert.Equal(suite.T(), suite.store.Lines(), restored.Lines())
	assert.Equal(suite.T(), "9.00", restored.Total().StringFixed(2))
	assert.Equal(suite.T(), 3, restored.LineCount())
}

func (suite *StoreTestSuite) TestRehydrateDropsInvalidLines() {
	require.NoError(suite.T(), storage.SetJSON(suite.ctx, suite.storage, storage.KeyCart, persistedCart{Lines: []models.CartLine{
		{ProductID: "1", Quantity: 1},
		{ID: "b", ProductID: "2", Quantity: 0},
		{ID: "c", ProductID: "", Quantity: 2},
		{ID: "d", ProductID: "1", Quantity: 4},
	}}))

	restored := suite.newStore()

	lines := restored.Lines()
	require.Len(suite.T(), lines, 1)
	assert.Equal(suite.T(), "1", lines[0].ProductID)
	assert.NotEmpty(suite.T(), lines[0].ID)
}

func (suite *StoreTestSuite) TestRehydrateIgnoresCorruptPayload() {
	require.NoError(suite.T(), suite.storage.Set(suite.ctx, storage.KeyCart, []byte("{not json")))
	assert.Empty(suite.T(), suite.newStore().Lines())
}

func (suite *StoreTestSuite) TestSubscriptionFiresOnProjectionChange() {
	var counts []int
	unsubscribe := Select(suite.store,
		func(state models.CartState) int { return len(state.Lines) },
		func(a, b int) bool { return a == b },
		func(n int) { counts = append(counts, n) },
	)

	suite.store.AddLine(suite.ctx, product("5", "4.50"), "", "en")
	suite.store.AddLine(suite.ctx, product("5", "4.50"), "", "en")
	suite.store.AddLine(suite.ctx, product("9", "1.00"), "", "en")

	unsubscribe()
	suite.store.RemoveLine(suite.ctx, "9", "", "en")

	assert.Equal(suite.T(), []int{1, 2}, counts)
}

func (suite *StoreTestSuite) TestSubscribeUsesDeepEquality() {
	var seen []interface{}
	unsubscribe := suite.store.Subscribe(
		func(state models.CartState) interface{} { return state.Lines },
		func(v interface{}) { seen = append(seen, v) },
	)
	defer unsubscribe()

	suite.store.AddLine(suite.ctx, product("5", "4.50"), "", "en")
	suite.store.RemoveLine(suite.ctx, "404", "", "en")

	require.Len(suite.T(), seen, 1)
	lines := seen[0].([]models.CartLine)
	assert.Equal(suite.T(), "5", lines[0].ProductID)
}

func (suite *StoreTestSuite) TestLoadingVisibleDuringRemoteCall() {
	suite.login("u1")
	var loading []bool
	unsubscribe := Select(suite.store,
		func(state models.CartState) bool { return state.IsLoading },
		func(a, b bool) bool { return a == b },
		func(v bool) { loading = append(loading, v) },
	)
	defer unsubscribe()

	remote := []models.CartLine{{ID: "r1", ProductID: "5", OwnerID: "u1", UnitPrice: "4.50", Quantity: 1}}
	upsert := models.LineUpsert{OwnerID: "u1", ProductID: "5", Quantity: 1}
	suite.gateway.On("UpsertCartLine", mock.Anything, upsert, "en").Return(nil).Twice()
	suite.gateway.On("FetchCart", mock.Anything, "u1", "en").Return(remote, nil).Once()

	suite.store.AddLine(suite.ctx, product("5", "4.50"), "u1", "en")

	assert.Equal(suite.T(), []bool{true, false}, loading)
	suite.gateway.AssertExpectations(suite.T())
}

func (suite *StoreTestSuite) TestConcurrentAddsOfOneProduct() {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			suite.store.AddLine(suite.ctx, product("5", "1.00"), "", "en")
		}()
	}
	wg.Wait()

	lines := suite.store.Lines()
	require.Len(suite.T(), lines, 1)
	assert.Equal(suite.T(), 50, lines[0].Quantity)
	assert.False(suite.T(), suite.store.State().IsLoading)
}

func (suite *StoreTestSuite) TestCancelledContextRecordsError() {
	suite.login("u1")
	suite.gateway.On("UpsertCartLine", mock.Anything, mock.Anything, "en").Return(context.Canceled).Once()

	ctx, cancel := context.WithCancel(suite.ctx)
	cancel()
	suite.store.AddLine(ctx, product("5", "4.50"), "u1", "en")

	state := suite.store.State()
	assert.Empty(suite.T(), state.Lines)
	require.NotNil(suite.T(), state.Error)
	assert.False(suite.T(), state.IsLoading)
}

func (suite *StoreTestSuite) TestDispatch() {
	require.NoError(suite.T(), suite.store.Dispatch(suite.ctx, AddLine{Product: product("5", "4.50"), Locale: "en"}))
	require.NoError(suite.T(), suite.store.Dispatch(suite.ctx, SetQuantity{ProductID: "5", Quantity: 3, Locale: "en"}))
	assert.Equal(suite.T(), 3, suite.store.LineCount())

	require.NoError(suite.T(), suite.store.Dispatch(suite.ctx, Logout{}))
	assert.Empty(suite.T(), suite.store.Lines())

	err := suite.store.Dispatch(suite.ctx, nil)
	assert.ErrorIs(suite.T(), err, ErrUnknownAction)
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want models.ErrorKind
	}{
		{"nil", nil, ""},
		{"invalid owner sentinel", fmt.Errorf("wrap: %w", ErrInvalidOwner), models.ErrorKindInvalidOwner},
		{"unsupported sentinel", ErrSyncUnsupported, models.ErrorKindSyncUnsupported},
		{"invalid user message", errors.New("Invalid user_id supplied"), models.ErrorKindInvalidOwner},
		{"unsupported message", errors.New("endpoint not supported"), models.ErrorKindSyncUnsupported},
		{"anything else", errors.New("boom"), models.ErrorKindGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

type remoteErr struct{ msg string }

func (e remoteErr) Error() string         { return "remote: " + e.msg }
func (e remoteErr) RemoteMessage() string { return e.msg }

func TestDescribe(t *testing.T) {
	assert.Nil(t, Describe(nil, "en"))

	got := Describe(remoteErr{msg: "Out of stock"}, "en")
	assert.Equal(t, models.ErrorKindGeneric, got.Kind)
	assert.Equal(t, "Out of stock", got.Message)

	got = Describe(remoteErr{msg: ""}, "en")
	assert.Equal(t, "remote: ", got.Message)

	got = Describe(ErrInvalidOwner, "ar")
	assert.Equal(t, i18n.T("ar", i18n.KeyCartInvalidOwner), got.Message)
}
