package models

// Cluster is a capacity- and distance-bounded group of locations. It is rebuilt on every run.
type Cluster struct {
	ID          int        `json:"id"`
	CentroidLat float64    `json:"centroid_lat"`
	CentroidLng float64    `json:"centroid_lng"`
	Members     []Location `json:"members"`
}

// TicketCluster is a Cluster expanded to every ticket located at one of its member addresses.
type TicketCluster struct {
	ID                 int         `json:"id"`
	CentroidLat        float64     `json:"centroid_lat"`
	CentroidLng        float64     `json:"centroid_lng"`
	Locations          []Location  `json:"locations"`
	Tickets            []RawTicket `json:"tickets"`
	TicketCount        int         `json:"ticket_count"`
	LocationCount      int         `json:"location_count"`
	TicketsPerLocation float64     `json:"tickets_per_location"`
}

// ClusterOptions bounds a clustering run.
type ClusterOptions struct {
	MaxDistanceMeters      float64 `json:"max_distance_meters" mapstructure:"max_distance_meters"`
	MaxClusterSize         int     `json:"max_cluster_size" mapstructure:"max_cluster_size"`
	MinLocationsPerCluster int     `json:"min_locations_per_cluster" mapstructure:"min_locations_per_cluster"`
}

// FailedAddress is a raw address that could not be resolved, with the reason.
type FailedAddress struct {
	Address string `json:"address"`
	Reason  string `json:"reason"`
}

// Failure reasons reported for unresolved addresses.
const (
	ReasonNotParseable   = "not_parseable"
	ReasonGeocodeFailure = "geocode_failure"
	ReasonCacheError     = "cache_error"
)

// ClusterResult is the full output of one clustering run.
type ClusterResult struct {
	RunID           string          `json:"run_id"`
	Options         ClusterOptions  `json:"options"`
	Clusters        []TicketCluster `json:"clusters"`
	Unassigned      []RawTicket     `json:"unassigned"`
	FailedAddresses []FailedAddress `json:"failed_addresses"`
}

// ClusterOverrides carries per-request option overrides; nil fields keep the configured default.
type ClusterOverrides struct {
	MaxDistanceMeters      *float64 `json:"max_distance_meters"`
	MaxClusterSize         *int     `json:"max_cluster_size"`
	MinLocationsPerCluster *int     `json:"min_locations_per_cluster"`
}

// Apply returns o with every non-nil override applied.
func (o ClusterOptions) Apply(ov ClusterOverrides) ClusterOptions {
	if ov.MaxDistanceMeters != nil {
		o.MaxDistanceMeters = *ov.MaxDistanceMeters
	}
	if ov.MaxClusterSize != nil {
		o.MaxClusterSize = *ov.MaxClusterSize
	}
	if ov.MinLocationsPerCluster != nil {
		o.MinLocationsPerCluster = *ov.MinLocationsPerCluster
	}
	return o
}
