package location

import (
	"context"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeserve/internal/types"
)

func TestUpdateTechnicianLocation_Accepted(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := NewService(NewStore(db))

	mock.ExpectHGet(techSeqKey, "t1").RedisNil()
	mock.ExpectTxPipeline()
	mock.ExpectGeoAdd(techGeoKey, &redis.GeoLocation{Name: "t1", Longitude: 77.6, Latitude: 12.9}).SetVal(1)
	mock.ExpectHSet(techSeqKey, "t1", int64(1)).SetVal(1)
	mock.ExpectTxPipelineExec()

	res, err := svc.UpdateTechnicianLocation(context.Background(), Update{
		TechnicianID: "t1",
		Point:        types.Point{Lat: 12.9, Lng: 77.6},
		Seq:          1,
	})
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTechnicianLocation_StaleSeqDropped(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := NewService(NewStore(db))

	mock.ExpectHGet(techSeqKey, "t1").SetVal("7")

	res, err := svc.UpdateTechnicianLocation(context.Background(), Update{
		TechnicianID: "t1",
		Point:        types.Point{Lat: 12.9, Lng: 77.6},
		Seq:          7,
	})
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, "stale", res.Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTechnicianLocation_InvalidPoint(t *testing.T) {
	db, _ := redismock.NewClientMock()
	svc := NewService(NewStore(db))

	_, err := svc.UpdateTechnicianLocation(context.Background(), Update{
		TechnicianID: "t1",
		Point:        types.Point{Lat: 120, Lng: 77.6},
		Seq:          1,
	})
	assert.ErrorIs(t, err, ErrInvalidPoint)
}

func TestPositions_SkipsUnknown(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewStore(db)

	mock.ExpectGeoPos(techGeoKey, "t1", "t2").SetVal([]*redis.GeoPos{
		{Longitude: 77.6, Latitude: 12.9},
		nil,
	})

	got, err := store.Positions(context.Background(), []types.ID{"t1", "t2"})
	require.NoError(t, err)
	assert.Equal(t, map[types.ID]types.Point{"t1": {Lat: 12.9, Lng: 77.6}}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
