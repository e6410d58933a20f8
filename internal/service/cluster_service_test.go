package service

import (
	"context"
	"math"
	"testing"

	"clustering-api/internal/cluster"
	"clustering-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockResolver is a mock implementation of the Resolver interface
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, rawAddresses []string) (*ResolveResult, error) {
	args := m.Called(ctx, rawAddresses)
	res, _ := args.Get(0).(*ResolveResult)
	return res, args.Error(1)
}

var defaultOpts = models.ClusterOptions{MaxDistanceMeters: 30000, MaxClusterSize: 95, MinLocationsPerCluster: 1}

func metersNorth(lat, meters float64) float64 {
	return lat + meters/(6371000.0*math.Pi/180)
}

func TestClusterService_Run(t *testing.T) {
	tickets := []models.RawTicket{
		{ID: "t1", Address: "5303 S Washtenaw Ave"},
		{ID: "t2", Address: "5305 S Washtenaw Ave"},
		{ID: "t3", Address: "100 Far Rd"},
		{ID: "t4", Address: "???"},
		{ID: "t5", Address: "5303 S Washtenaw Ave"},
	}
	addresses := []string{"5303 S Washtenaw Ave", "5305 S Washtenaw Ave", "100 Far Rd", "???", "5303 S Washtenaw Ave"}

	resolver := new(MockResolver)
	resolver.On("Resolve", mock.Anything, addresses).Return(&ResolveResult{
		Resolved: []models.Location{
			{ID: 1, Latitude: 41.8, Longitude: -87.6, RawAddresses: []string{"5303 S Washtenaw Ave"}},
			{ID: 2, Latitude: metersNorth(41.8, 500), Longitude: -87.6, RawAddresses: []string{"5305 S Washtenaw Ave"}},
			{ID: 3, Latitude: metersNorth(41.8, 50000), Longitude: -87.6, RawAddresses: []string{"100 Far Rd"}},
		},
		Failed: []models.FailedAddress{{Address: "???", Reason: models.ReasonNotParseable}},
	}, nil)

	result, err := NewClusterService(resolver, defaultOpts).Run(context.Background(), tickets, models.ClusterOverrides{})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, defaultOpts, result.Options)
	require.Len(t, result.Clusters, 2)
	assert.Equal(t, 2, result.Clusters[0].LocationCount)
	assert.Equal(t, 3, result.Clusters[0].TicketCount)
	assert.Equal(t, 1.5, result.Clusters[0].TicketsPerLocation)
	assert.Equal(t, []models.RawTicket{tickets[2]}, result.Clusters[1].Tickets)
	assert.Equal(t, []models.RawTicket{tickets[3]}, result.Unassigned)
	assert.Equal(t, []models.FailedAddress{{Address: "???", Reason: models.ReasonNotParseable}}, result.FailedAddresses)

	resolver.AssertExpectations(t)
}

func TestClusterService_Run_Overrides(t *testing.T) {
	resolver := new(MockResolver)
	resolver.On("Resolve", mock.Anything, []string{"1 A St", "2 A St"}).Return(&ResolveResult{
		Resolved: []models.Location{
			{ID: 1, Latitude: 41.8, Longitude: -87.6, RawAddresses: []string{"1 A St"}},
			{ID: 2, Latitude: 41.8, Longitude: -87.6, RawAddresses: []string{"2 A St"}},
		},
	}, nil)

	size := 1
	result, err := NewClusterService(resolver, defaultOpts).Run(context.Background(),
		[]models.RawTicket{{ID: "a", Address: "1 A St"}, {ID: "b", Address: "2 A St"}},
		models.ClusterOverrides{MaxClusterSize: &size},
	)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Options.MaxClusterSize)
	assert.Equal(t, 30000.0, result.Options.MaxDistanceMeters)
	assert.Len(t, result.Clusters, 2)
}

func TestClusterService_Run_InvalidConfiguration(t *testing.T) {
	resolver := new(MockResolver)
	distance := 0.0

	result, err := NewClusterService(resolver, defaultOpts).Run(context.Background(),
		[]models.RawTicket{{ID: "a", Address: "1 A St"}},
		models.ClusterOverrides{MaxDistanceMeters: &distance},
	)
	assert.ErrorIs(t, err, cluster.ErrInvalidConfiguration)
	assert.Nil(t, result)
	resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestClusterService_Run_NoLocationsResolved(t *testing.T) {
	tickets := []models.RawTicket{{ID: "a", Address: "???"}, {ID: "b", Address: "!!!"}}
	failed := []models.FailedAddress{
		{Address: "???", Reason: models.ReasonNotParseable},
		{Address: "!!!", Reason: models.ReasonNotParseable},
	}

	resolver := new(MockResolver)
	resolver.On("Resolve", mock.Anything, []string{"???", "!!!"}).
		Return(&ResolveResult{Resolved: []models.Location{}, Failed: failed}, ErrNoLocationsResolved)

	result, err := NewClusterService(resolver, defaultOpts).Run(context.Background(), tickets, models.ClusterOverrides{})
	assert.ErrorIs(t, err, ErrNoLocationsResolved)
	require.NotNil(t, result)
	assert.Empty(t, result.Clusters)
	assert.Equal(t, tickets, result.Unassigned)
	assert.Equal(t, failed, result.FailedAddresses)
}

func TestClusterService_Defaults(t *testing.T) {
	assert.Equal(t, defaultOpts, NewClusterService(nil, defaultOpts).Defaults())
}
