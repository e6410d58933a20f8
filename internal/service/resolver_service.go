package service

import (
	"context"
	"errors"

	"clustering-api/internal/address"
	"clustering-api/internal/geocoding"
	"clustering-api/internal/models"
	"clustering-api/internal/repository"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrNoLocationsResolved is returned when not a single address of a non-empty batch resolved.
var ErrNoLocationsResolved = eris.New("service: no locations resolved")

// MaxConcurrency caps parallel geocoding calls regardless of configuration.
const MaxConcurrency = 8

// AddressCache interface for dependency injection
type AddressCache interface {
	Lookup(ctx context.Context, addr models.StructuredAddress) (*models.Location, error)
	Upsert(ctx context.Context, addr models.StructuredAddress, lat, lng float64, placeID string) (*models.Location, error)
}

// Geocoder interface for dependency injection
type Geocoder interface {
	Geocode(ctx context.Context, rawAddress string) (*geocoding.Result, error)
}

// ResolveResult holds the outcome of resolving a batch of raw addresses.
type ResolveResult struct {
	Resolved []models.Location
	Failed   []models.FailedAddress
}

// AddressResolver turns raw address strings into cached, geocoded locations
type AddressResolver struct {
	cache       AddressCache
	geocoder    Geocoder
	concurrency int
}

// NewAddressResolver creates a new address resolver. Concurrency is clamped to [1, MaxConcurrency].
func NewAddressResolver(cache AddressCache, geocoder Geocoder, concurrency int) *AddressResolver {
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > MaxConcurrency {
		concurrency = MaxConcurrency
	}
	return &AddressResolver{cache: cache, geocoder: geocoder, concurrency: concurrency}
}

// addressGroup is every raw spelling of one structured address seen in a batch.
type addressGroup struct {
	addr models.StructuredAddress
	raws []string
}

type groupOutcome struct {
	loc    *models.Location
	reason string
}

// Resolve resolves every unique raw address. Per-address failures are collected, never
// returned as errors; each structured address is looked up and geocoded at most once.
// Resolved locations follow the first-seen order of the input. When nothing resolves the
// result is still returned alongside ErrNoLocationsResolved.
//
// Addresses missing from the cache are upserted concurrently, so on a cold cache new
// Location IDs follow completion order rather than input order. A rerun over the warm
// cache sees stable IDs.
func (s *AddressResolver) Resolve(ctx context.Context, rawAddresses []string) (*ResolveResult, error) {
	unique := make([]string, 0, len(rawAddresses))
	seen := make(map[string]struct{}, len(rawAddresses))
	for _, raw := range rawAddresses {
		if _, ok := seen[raw]; ok {
			continue
		}
		seen[raw] = struct{}{}
		unique = append(unique, raw)
	}

	failedReason := make(map[string]string)
	groupIndex := make(map[string]int)
	var groups []*addressGroup
	for _, raw := range unique {
		addr, err := address.Normalize(raw)
		if err != nil {
			log.Warn().Str("address", raw).Msg("skipping unparseable address")
			failedReason[raw] = models.ReasonNotParseable
			continue
		}
		if i, ok := groupIndex[addr.Key()]; ok {
			groups[i].raws = append(groups[i].raws, raw)
			continue
		}
		groupIndex[addr.Key()] = len(groups)
		groups = append(groups, &addressGroup{addr: addr, raws: []string{raw}})
	}

	outcomes := make([]groupOutcome, len(groups))
	var eg errgroup.Group
	eg.SetLimit(s.concurrency)
	for i, g := range groups {
		eg.Go(func() error {
			loc, reason, err := s.resolveGroup(ctx, g.addr, g.raws[0])
			if err != nil {
				log.Warn().Err(err).Str("address", g.raws[0]).Str("reason", reason).Msg("address not resolved")
			}
			outcomes[i] = groupOutcome{loc: loc, reason: reason}
			return nil
		})
	}
	_ = eg.Wait()

	result := &ResolveResult{
		Resolved: make([]models.Location, 0, len(groups)),
		Failed:   make([]models.FailedAddress, 0),
	}
	for i, g := range groups {
		if outcomes[i].loc == nil {
			for _, raw := range g.raws {
				failedReason[raw] = outcomes[i].reason
			}
			continue
		}
		loc := *outcomes[i].loc
		loc.RawAddresses = g.raws
		result.Resolved = append(result.Resolved, loc)
	}
	for _, raw := range unique {
		if reason, ok := failedReason[raw]; ok {
			result.Failed = append(result.Failed, models.FailedAddress{Address: raw, Reason: reason})
		}
	}

	if len(unique) > 0 && len(result.Resolved) == 0 {
		return result, eris.Wrapf(ErrNoLocationsResolved, "service: all %d addresses failed", len(unique))
	}
	return result, nil
}

// ResolveOne resolves a single raw address, returning the failure as an error.
func (s *AddressResolver) ResolveOne(ctx context.Context, raw string) (*models.Location, error) {
	addr, err := address.Normalize(raw)
	if err != nil {
		return nil, err
	}
	loc, _, err := s.resolveGroup(ctx, addr, raw)
	if err != nil {
		return nil, err
	}
	loc.RawAddresses = []string{raw}
	return loc, nil
}

// resolveGroup returns the cached location or geocodes and caches it. A failing cache
// read is treated as a miss; without a successful upsert there is no location identity.
func (s *AddressResolver) resolveGroup(ctx context.Context, addr models.StructuredAddress, raw string) (*models.Location, string, error) {
	loc, err := s.cache.Lookup(ctx, addr)
	if err == nil {
		return loc, "", nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		log.Warn().Err(err).Str("address", raw).Msg("address cache lookup failed, geocoding instead")
	}

	res, err := s.geocoder.Geocode(ctx, raw)
	if err != nil {
		return nil, models.ReasonGeocodeFailure, eris.Wrap(err, "service: geocode")
	}

	loc, err = s.cache.Upsert(ctx, addr, res.Latitude, res.Longitude, res.PlaceID)
	if err != nil {
		return nil, models.ReasonCacheError, eris.Wrap(err, "service: cache geocoded address")
	}
	return loc, "", nil
}
