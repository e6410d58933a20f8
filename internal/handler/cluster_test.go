package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clustering-api/internal/cluster"
	"clustering-api/internal/models"
	"clustering-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockClusterService is a mock implementation of the ClusterService interface
type MockClusterService struct {
	mock.Mock
}

func (m *MockClusterService) Run(ctx context.Context, tickets []models.RawTicket, ov models.ClusterOverrides) (*models.ClusterResult, error) {
	args := m.Called(ctx, tickets, ov)
	res, _ := args.Get(0).(*models.ClusterResult)
	return res, args.Error(1)
}

func TestClusterHandler_Cluster(t *testing.T) {
	gin.SetMode(gin.TestMode)

	size := 10
	tickets := []models.RawTicket{{ID: "t1", Address: "5303 S Washtenaw Ave"}, {ID: "t2", Address: "???"}}
	washtenaw := models.Location{ID: 1, Address: models.StructuredAddress{Number: "5303", Cardinal: "S", Street: "WASHTENAW", Suffix: "AVE"}, Latitude: 41.8, Longitude: -87.6}

	tests := []struct {
		name           string
		body           string
		expectCall     bool
		overrides      models.ClusterOverrides
		mockResult     *models.ClusterResult
		mockError      error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "malformed body",
			body:           `{"tickets": [`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error": "invalid request body"}`,
		},
		{
			name:           "ticket without address",
			body:           `{"tickets": [{"id": "t1"}]}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error": "invalid request body"}`,
		},
		{
			name:       "successful clustering",
			body:       `{"tickets": [{"id": "t1", "address": "5303 S Washtenaw Ave"}, {"id": "t2", "address": "???"}], "max_cluster_size": 10}`,
			expectCall: true,
			overrides:  models.ClusterOverrides{MaxClusterSize: &size},
			mockResult: &models.ClusterResult{
				RunID:   "run-1",
				Options: models.ClusterOptions{MaxDistanceMeters: 30000, MaxClusterSize: 10, MinLocationsPerCluster: 1},
				Clusters: []models.TicketCluster{{
					ID: 1, CentroidLat: 41.8, CentroidLng: -87.6,
					Locations: []models.Location{washtenaw}, Tickets: tickets[:1],
					TicketCount: 1, LocationCount: 1, TicketsPerLocation: 1,
				}},
				Unassigned:      tickets[1:],
				FailedAddresses: []models.FailedAddress{{Address: "???", Reason: models.ReasonNotParseable}},
			},
			expectedStatus: http.StatusOK,
			expectedBody: `{
				"run_id": "run-1",
				"options": {"max_distance_meters": 30000, "max_cluster_size": 10, "min_locations_per_cluster": 1},
				"clusters": [{
					"id": 1, "centroid_lat": 41.8, "centroid_lng": -87.6,
					"locations": [{"id": 1, "address": {"number": "5303", "cardinal": "S", "street": "WASHTENAW", "suffix": "AVE"},
						"latitude": 41.8, "longitude": -87.6, "updated_at": "0001-01-01T00:00:00Z"}],
					"tickets": [{"id": "t1", "address": "5303 S Washtenaw Ave"}],
					"ticket_count": 1, "location_count": 1, "tickets_per_location": 1
				}],
				"unassigned": [{"id": "t2", "address": "???"}],
				"failed_addresses": [{"address": "???", "reason": "not_parseable"}]
			}`,
		},
		{
			name:           "invalid configuration",
			body:           `{"tickets": [{"id": "t1", "address": "5303 S Washtenaw Ave"}], "max_cluster_size": 10}`,
			expectCall:     true,
			overrides:      models.ClusterOverrides{MaxClusterSize: &size},
			mockError:      cluster.ErrInvalidConfiguration,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error": "invalid clustering configuration"}`,
		},
		{
			name:       "no locations resolved",
			body:       `{"tickets": [{"id": "t2", "address": "???"}]}`,
			expectCall: true,
			mockResult: &models.ClusterResult{
				Unassigned:      tickets[1:],
				FailedAddresses: []models.FailedAddress{{Address: "???", Reason: models.ReasonNotParseable}},
			},
			mockError:      service.ErrNoLocationsResolved,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody: `{
				"error": "no ticket address could be resolved",
				"unassigned": [{"id": "t2", "address": "???"}],
				"failed_addresses": [{"address": "???", "reason": "not_parseable"}]
			}`,
		},
		{
			name:           "service error",
			body:           `{"tickets": [{"id": "t2", "address": "???"}]}`,
			expectCall:     true,
			mockError:      assert.AnError,
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error": "internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			mockSvc := new(MockClusterService)
			handler := NewClusterHandler(mockSvc)

			if tt.expectCall {
				mockSvc.On("Run", mock.Anything, mock.AnythingOfType("[]models.RawTicket"), tt.overrides).
					Return(tt.mockResult, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodPost, "/clusters", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			c, _ := gin.CreateTestContext(w)
			c.Request = req

			// Execute
			handler.Cluster(c)

			// Assert
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())

			if tt.expectCall {
				mockSvc.AssertExpectations(t)
			} else {
				mockSvc.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}
