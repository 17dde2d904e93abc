package conversation

import (
	"context"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Message{}))
	return db
}

// seedAt inserts a message with an explicit timestamp.
func seedAt(t *testing.T, db *gorm.DB, tenantID, user string, dir Direction, at time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&Message{
		CustomerID: tenantID, UserPhone: user, Direction: dir, Content: "x", CreatedAt: at,
	}).Error)
}

func TestAppend_RequiresFields(t *testing.T) {
	svc := NewService(NewRepo(openTestDB(t)))
	ctx := context.Background()

	_, err := svc.Append(ctx, "", "555", DirectionInbound, "hi")
	assert.ErrorIs(t, err, ErrMissingField)
	_, err = svc.Append(ctx, "t1", "", DirectionInbound, "hi")
	assert.ErrorIs(t, err, ErrMissingField)
	_, err = svc.Append(ctx, "t1", "555", "sideways", "hi")
	assert.ErrorIs(t, err, ErrMissingField)

	m, err := svc.Append(ctx, "t1", "555", DirectionInbound, "hi")
	require.NoError(t, err)
	assert.NotZero(t, m.ID)
}

func TestListByTenant_NewestFirstWithFilterAndPaging(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(NewRepo(db))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	seedAt(t, db, "t1", "A", DirectionInbound, base)
	seedAt(t, db, "t1", "A", DirectionOutbound, base.Add(time.Second))
	seedAt(t, db, "t1", "B", DirectionInbound, base.Add(2*time.Second))
	seedAt(t, db, "t2", "A", DirectionInbound, base.Add(3*time.Second))

	msgs, err := svc.ListByTenant(ctx, "t1", Filter{})
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "B", msgs[0].UserPhone)
	assert.Equal(t, DirectionOutbound, msgs[1].Direction)

	msgs, err = svc.ListByTenant(ctx, "t1", Filter{UserPhone: "A", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, DirectionInbound, msgs[0].Direction)

	n, err := svc.Count(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestListConversations_GroupsByEndUser(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(NewRepo(db))
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	seedAt(t, db, "t1", "A", DirectionInbound, base)
	seedAt(t, db, "t1", "A", DirectionOutbound, base.Add(1*time.Minute))
	seedAt(t, db, "t1", "B", DirectionInbound, base.Add(2*time.Minute))
	seedAt(t, db, "t1", "B", DirectionOutbound, base.Add(3*time.Minute))
	seedAt(t, db, "t1", "A", DirectionInbound, base.Add(4*time.Minute))

	convs, err := svc.ListConversations(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, convs, 2)

	assert.Equal(t, "A", convs[0].UserPhone)
	assert.Equal(t, 3, convs[0].MessageCount)
	assert.True(t, convs[0].LastMessageAt.Equal(base.Add(4*time.Minute)))

	assert.Equal(t, "B", convs[1].UserPhone)
	assert.Equal(t, 2, convs[1].MessageCount)
	assert.True(t, convs[1].LastMessageAt.Equal(base.Add(3*time.Minute)))
}

func TestListConversations_EmptyTenant(t *testing.T) {
	convs, err := NewService(NewRepo(openTestDB(t))).ListConversations(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, convs)
}
