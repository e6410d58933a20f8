// Package cluster groups resolved locations into capacity- and distance-bounded
// clusters and expands them back to tickets. Nothing here performs I/O.
package cluster

import (
	"math"
	"sort"

	"clustering-api/internal/models"

	"github.com/rotisserie/eris"
)

// ErrInvalidConfiguration is returned for a non-positive distance bound or cluster size.
var ErrInvalidConfiguration = eris.New("cluster: invalid configuration")

const earthRadiusMeters = 6371000.0

// HaversineMeters returns the great-circle distance between two points.
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Validate rejects options that cannot bound a cluster.
func Validate(opts models.ClusterOptions) error {
	if opts.MaxDistanceMeters <= 0 || math.IsNaN(opts.MaxDistanceMeters) || math.IsInf(opts.MaxDistanceMeters, 0) {
		return eris.Wrapf(ErrInvalidConfiguration, "cluster: max distance must be positive, got %v", opts.MaxDistanceMeters)
	}
	if opts.MaxClusterSize < 1 {
		return eris.Wrapf(ErrInvalidConfiguration, "cluster: max cluster size must be at least 1, got %d", opts.MaxClusterSize)
	}
	return nil
}

type candidate struct {
	idx      int
	distance float64
}

// Cluster partitions locations greedily. The lowest-id unclustered location seeds each
// cluster, which then admits the nearest unclustered locations within MaxDistanceMeters
// of the seed until it holds MaxClusterSize members. Distance ties go to the lower id.
// Every input location lands in exactly one cluster; singletons are kept.
func Cluster(locations []models.Location, opts models.ClusterOptions) ([]models.Cluster, error) {
	if err := Validate(opts); err != nil {
		return nil, err
	}

	sorted := make([]models.Location, len(locations))
	copy(sorted, locations)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	clustered := make([]bool, len(sorted))
	remaining := len(sorted)
	clusters := make([]models.Cluster, 0)

	for seed := 0; remaining > 0; seed++ {
		if clustered[seed] {
			continue
		}
		s := sorted[seed]
		clustered[seed] = true
		remaining--
		members := []models.Location{s}

		var candidates []candidate
		for i := seed + 1; i < len(sorted); i++ {
			if clustered[i] {
				continue
			}
			d := HaversineMeters(s.Latitude, s.Longitude, sorted[i].Latitude, sorted[i].Longitude)
			if d <= opts.MaxDistanceMeters {
				candidates = append(candidates, candidate{idx: i, distance: d})
			}
		}
		// Indices follow id order, so a stable sort on distance keeps ties by id.
		sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].distance < candidates[j].distance })

		for _, c := range candidates {
			if len(members) >= opts.MaxClusterSize {
				break
			}
			clustered[c.idx] = true
			remaining--
			members = append(members, sorted[c.idx])
		}

		lat, lng := centroid(members)
		clusters = append(clusters, models.Cluster{
			ID:          len(clusters) + 1,
			CentroidLat: lat,
			CentroidLng: lng,
			Members:     members,
		})
	}

	return clusters, nil
}

// centroid is the planar mean of member coordinates. Adequate at city scale.
func centroid(members []models.Location) (float64, float64) {
	var lat, lng float64
	for _, m := range members {
		lat += m.Latitude
		lng += m.Longitude
	}
	n := float64(len(members))
	return lat / n, lng / n
}
