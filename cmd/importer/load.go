package main

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"clustering-api/internal/address"
	"clustering-api/internal/repository"
	"clustering-api/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// AddressRecord is one pre-geocoded row of the import file.
type AddressRecord struct {
	Line      int
	Address   string
	Latitude  float64
	Longitude float64
	PlaceID   string
}

// loadStats summarizes an import run.
type loadStats struct {
	Stored       int
	Unparseable  int
	StoreFailure int
}

var loadFile string

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Seed the address cache from a CSV file",
	Long:  "Reads address,latitude,longitude[,place_id] rows, normalizes each address and upserts it into the configured cache.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		f, err := os.Open(loadFile)
		if err != nil {
			return eris.Wrap(err, "importer: open file")
		}
		defer f.Close()

		records, err := parseCSV(f)
		if err != nil {
			return err
		}
		log.Info().Str("file", loadFile).Int("records", len(records)).Msg("parsed import file")

		var cache service.AddressCache
		switch cfg.Cache.Driver {
		case "redis":
			opt, err := redis.ParseURL(cfg.Cache.RedisURL)
			if err != nil {
				return eris.Wrap(err, "importer: parse redis url")
			}
			client := redis.NewClient(opt)
			defer client.Close()
			cache = repository.NewRedisRepository(client, cfg.Cache.RedisPrefix)
		default:
			pool, err := repository.NewPool(ctx, cfg.DBSource)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := repository.Migrate(ctx, pool); err != nil {
				return err
			}
			cache = repository.NewPostgresRepository(pool)
		}

		stats := loadRecords(ctx, cache, records)
		log.Info().
			Int("stored", stats.Stored).
			Int("unparseable", stats.Unparseable).
			Int("store_failures", stats.StoreFailure).
			Msg("import complete")
		if stats.Stored == 0 && len(records) > 0 {
			return eris.New("importer: no records stored")
		}
		return nil
	},
}

func init() {
	loadCmd.Flags().StringVar(&loadFile, "file", "", "path to the CSV file to import")
	_ = loadCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(loadCmd)
}

// parseCSV reads the header row and every record after it.
func parseCSV(r io.Reader) ([]AddressRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // place_id is optional

	if _, err := reader.Read(); err != nil {
		return nil, eris.Wrap(err, "importer: read header")
	}

	var records []AddressRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "importer: read line %d", line)
		}
		if len(row) < 3 {
			return nil, eris.Errorf("importer: line %d: expected at least 3 columns, got %d", line, len(row))
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return nil, eris.Errorf("importer: line %d: invalid latitude %q", line, row[1])
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		if err != nil {
			return nil, eris.Errorf("importer: line %d: invalid longitude %q", line, row[2])
		}

		rec := AddressRecord{Line: line, Address: row[0], Latitude: lat, Longitude: lng}
		if len(row) > 3 {
			rec.PlaceID = strings.TrimSpace(row[3])
		}
		records = append(records, rec)
	}

	return records, nil
}

// loadRecords upserts every parseable record, skipping the rest with a warning.
func loadRecords(ctx context.Context, cache service.AddressCache, records []AddressRecord) loadStats {
	var stats loadStats
	for _, rec := range records {
		addr, err := address.Normalize(rec.Address)
		if err != nil {
			log.Warn().Int("line", rec.Line).Str("address", rec.Address).Msg("skipping unparseable address")
			stats.Unparseable++
			continue
		}
		if _, err := cache.Upsert(ctx, addr, rec.Latitude, rec.Longitude, rec.PlaceID); err != nil {
			log.Warn().Err(err).Int("line", rec.Line).Str("address", rec.Address).Msg("failed to store address")
			stats.StoreFailure++
			continue
		}
		stats.Stored++
	}
	return stats
}
