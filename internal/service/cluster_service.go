package service

import (
	"context"

	"clustering-api/internal/cluster"
	"clustering-api/internal/models"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
)

// Resolver interface for dependency injection
type Resolver interface {
	Resolve(ctx context.Context, rawAddresses []string) (*ResolveResult, error)
}

// ClusterService runs the ticket -> location -> cluster -> ticket cluster pipeline
type ClusterService struct {
	resolver Resolver
	defaults models.ClusterOptions
}

// NewClusterService creates a new cluster service with the configured default options
func NewClusterService(resolver Resolver, defaults models.ClusterOptions) *ClusterService {
	return &ClusterService{resolver: resolver, defaults: defaults}
}

// Defaults returns the options used when a request overrides nothing.
func (s *ClusterService) Defaults() models.ClusterOptions {
	return s.defaults
}

// Run clusters tickets by the location of their address. Options are validated before any
// address is resolved. Tickets whose address did not resolve are listed in Unassigned.
// On ErrNoLocationsResolved the partial result describing the failures is returned too.
func (s *ClusterService) Run(ctx context.Context, tickets []models.RawTicket, overrides models.ClusterOverrides) (*models.ClusterResult, error) {
	opts := s.defaults.Apply(overrides)
	if err := cluster.Validate(opts); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := log.With().Str("run_id", runID).Logger()

	addresses := make([]string, 0, len(tickets))
	for _, t := range tickets {
		addresses = append(addresses, t.Address)
	}

	result := &models.ClusterResult{
		RunID:           runID,
		Options:         opts,
		Clusters:        []models.TicketCluster{},
		Unassigned:      []models.RawTicket{},
		FailedAddresses: []models.FailedAddress{},
	}

	resolved, err := s.resolver.Resolve(ctx, addresses)
	if resolved != nil && resolved.Failed != nil {
		result.FailedAddresses = resolved.Failed
	}
	if err != nil {
		result.Unassigned = append(result.Unassigned, tickets...)
		logger.Error().Err(err).Int("tickets", len(tickets)).Msg("clustering run failed")
		return result, eris.Wrap(err, "service: resolve addresses")
	}

	clusters, err := cluster.Cluster(resolved.Resolved, opts)
	if err != nil {
		return nil, eris.Wrap(err, "service: cluster locations")
	}

	result.Clusters, result.Unassigned = cluster.MapToTickets(clusters, tickets)

	logger.Info().
		Int("tickets", len(tickets)).
		Int("locations", len(resolved.Resolved)).
		Int("failed_addresses", len(resolved.Failed)).
		Int("clusters", len(result.Clusters)).
		Int("unassigned", len(result.Unassigned)).
		Msg("clustering run complete")

	return result, nil
}
