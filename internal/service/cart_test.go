package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCartService(t *testing.T) *CartService {
	t.Helper()
	return &CartService{Repo: newTestRepo(t), Locker: newStubLocker(), Publisher: &stubPublisher{}}
}

func TestAddItem_RecomputedTotalsInvariant(t *testing.T) {
	t.Parallel()

	svc := newCartService(t)
	ctx := context.Background()
	owner := guestOwner("guest-totals")

	a := createProduct(t, svc.Repo, "칫솔 세트", 18900, 10)
	b := createProduct(t, svc.Repo, "치약 3개입", 16900, 5)

	_, err := svc.AddItem(ctx, owner, a.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, owner, b.ID, 1)
	require.NoError(t, err)

	cart, err := svc.GetCart(ctx, owner)
	require.NoError(t, err)

	var sum int64
	var count uint
	for _, line := range cart.Items {
		sum += line.UnitPrice * int64(line.Quantity)
		count += line.Quantity
	}
	assert.Equal(t, int64(54700), sum)
	assert.Equal(t, sum, cart.TotalPrice)
	assert.Equal(t, count, cart.ItemCount)
}

func TestAddItem_SameProductMergesIntoOneLine(t *testing.T) {
	t.Parallel()

	svc := newCartService(t)
	ctx := context.Background()
	owner := guestOwner("guest-merge-line")

	p := createProduct(t, svc.Repo, "구강청결제", 9900, 4)

	_, err := svc.AddItem(ctx, owner, p.ID, 2)
	require.NoError(t, err)
	item, err := svc.AddItem(ctx, owner, p.ID, 3)
	require.NoError(t, err)

	// 2+3 exceeds stock 4, clamped rather than dropped.
	assert.Equal(t, uint(4), item.Quantity)

	cart, err := svc.GetCart(ctx, owner)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, uint(4), cart.Items[0].Quantity)
	assert.Equal(t, int64(9900*4), cart.TotalPrice)
}

func TestAddItem_OutOfStock(t *testing.T) {
	t.Parallel()

	svc := newCartService(t)
	ctx := context.Background()

	p := createProduct(t, svc.Repo, "잇몸 치약", 12000, 5)

	_, err := svc.AddItem(ctx, guestOwner("guest-oos"), p.ID, 6)
	require.ErrorIs(t, err, ErrOutOfStock)
}

func TestAddItem_SnapshotsPriceAndDiscount(t *testing.T) {
	t.Parallel()

	svc := newCartService(t)
	ctx := context.Background()
	owner := guestOwner("guest-snapshot")

	p := createProduct(t, svc.Repo, "미백 치약", 10000, 10)
	p.OriginalPrice = 15000
	require.NoError(t, svc.Repo.SaveProduct(ctx, p))

	item, err := svc.AddItem(ctx, owner, p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), item.UnitPrice)
	assert.Equal(t, int64(5000), item.Discount)

	// A later price change must not touch the snapshot.
	p.Price = 99999
	require.NoError(t, svc.Repo.SaveProduct(ctx, p))

	cart, err := svc.GetCart(ctx, owner)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(10000), cart.Items[0].UnitPrice)
}

func TestUpdateQuantity_DeclinesOutOfRange(t *testing.T) {
	t.Parallel()

	svc := newCartService(t)
	ctx := context.Background()
	owner := guestOwner("guest-update")

	p := createProduct(t, svc.Repo, "치실", 3000, 5)
	_, err := svc.AddItem(ctx, owner, p.ID, 2)
	require.NoError(t, err)

	_, err = svc.UpdateQuantity(ctx, owner, p.ID, 0)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdateQuantity(ctx, owner, p.ID, 6)
	require.ErrorIs(t, err, ErrOutOfStock)

	item, err := svc.UpdateQuantity(ctx, owner, p.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, uint(5), item.Quantity)
	assert.Equal(t, int64(15000), item.LineTotal)
}

func TestRemoveItem_NotFound(t *testing.T) {
	t.Parallel()

	svc := newCartService(t)
	ctx := context.Background()
	owner := guestOwner("guest-remove")

	p := createProduct(t, svc.Repo, "혀클리너", 2500, 9)
	_, err := svc.AddItem(ctx, owner, p.ID, 1)
	require.NoError(t, err)

	err = svc.RemoveItem(ctx, owner, p.ID+100)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.RemoveItem(ctx, owner, p.ID))

	cart, err := svc.GetCart(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalPrice)
}

func TestRemoveItems_PartialBatchRollsBack(t *testing.T) {
	t.Parallel()

	svc := newCartService(t)
	ctx := context.Background()
	owner := guestOwner("guest-batch")

	a := createProduct(t, svc.Repo, "칫솔", 4000, 10)
	b := createProduct(t, svc.Repo, "치약", 6000, 10)
	_, err := svc.AddItem(ctx, owner, a.ID, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, owner, b.ID, 1)
	require.NoError(t, err)

	err = svc.RemoveItems(ctx, owner, []uint{a.ID, b.ID + 100})
	require.ErrorIs(t, err, ErrNotFound)

	// Nothing was deleted: the batch is all-or-nothing.
	cart, err := svc.GetCart(ctx, owner)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, int64(10000), cart.TotalPrice)

	require.NoError(t, svc.RemoveItems(ctx, owner, []uint{a.ID, b.ID}))
	cart, err = svc.GetCart(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestMerge_ClampsAndDeletesGuestCart(t *testing.T) {
	t.Parallel()

	svc := newCartService(t)
	ctx := context.Background()

	p := createProduct(t, svc.Repo, "전동칫솔 리필", 8900, 4)
	extra := createProduct(t, svc.Repo, "휴대용 치약", 4500, 20)

	const userID = uint(7)
	guestToken := "guest-to-merge"

	_, err := svc.AddItem(ctx, userOwner(userID), p.ID, 3)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, guestOwner(guestToken), p.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, guestOwner(guestToken), extra.ID, 1)
	require.NoError(t, err)

	require.NoError(t, svc.Merge(ctx, guestToken, userID))

	cart, err := svc.GetCart(ctx, userOwner(userID))
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)

	byProduct := map[uint]uint{}
	for _, line := range cart.Items {
		byProduct[line.ProductID] = line.Quantity
	}
	assert.Equal(t, uint(4), byProduct[p.ID], "3+2 clamped to stock 4")
	assert.Equal(t, uint(1), byProduct[extra.ID], "guest-only line re-parented")

	_, err = svc.Repo.FindCart(ctx, nil, &guestToken)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound), "guest cart must be gone")
}

func TestMerge_EmptyGuestCartIsNoop(t *testing.T) {
	t.Parallel()

	svc := newCartService(t)
	ctx := context.Background()

	require.NoError(t, svc.Merge(ctx, "never-seen-guest", 3))
}

func TestMerge_SecondClaimDeclined(t *testing.T) {
	t.Parallel()

	locker := newStubLocker()
	svc := newCartService(t)
	svc.Locker = locker

	ctx := context.Background()
	p := createProduct(t, svc.Repo, "어린이 칫솔", 3900, 10)

	guestToken := "guest-contended"
	_, err := svc.AddItem(ctx, guestOwner(guestToken), p.ID, 1)
	require.NoError(t, err)

	locker.declined = true
	err = svc.Merge(ctx, guestToken, 1)
	require.ErrorIs(t, err, ErrConflict)
}
