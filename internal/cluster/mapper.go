package cluster

import "clustering-api/internal/models"

// MapToTickets expands location clusters into ticket clusters. A ticket joins the cluster
// whose member location was resolved from the ticket's exact raw address string. Tickets
// that match no cluster are returned as unassigned.
func MapToTickets(clusters []models.Cluster, tickets []models.RawTicket) ([]models.TicketCluster, []models.RawTicket) {
	owner := make(map[string]int, len(tickets))
	for i, c := range clusters {
		for _, loc := range c.Members {
			for _, raw := range loc.RawAddresses {
				if _, ok := owner[raw]; !ok {
					owner[raw] = i
				}
			}
		}
	}

	out := make([]models.TicketCluster, len(clusters))
	for i, c := range clusters {
		out[i] = models.TicketCluster{
			ID:            c.ID,
			CentroidLat:   c.CentroidLat,
			CentroidLng:   c.CentroidLng,
			Locations:     c.Members,
			Tickets:       []models.RawTicket{},
			LocationCount: len(c.Members),
		}
	}

	unassigned := make([]models.RawTicket, 0)
	for _, t := range tickets {
		i, ok := owner[t.Address]
		if !ok {
			unassigned = append(unassigned, t)
			continue
		}
		out[i].Tickets = append(out[i].Tickets, t)
	}

	for i := range out {
		out[i].TicketCount = len(out[i].Tickets)
		if out[i].LocationCount > 0 {
			out[i].TicketsPerLocation = float64(out[i].TicketCount) / float64(out[i].LocationCount)
		}
	}

	return out, unassigned
}
