package main

import (
	"context"
	"net/http"

	"clustering-api/internal/config"
	"clustering-api/internal/geocoding"
	"clustering-api/internal/handler"
	"clustering-api/internal/repository"
	"clustering-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		log.Fatal().Err(err).Msg("cannot init logger")
	}

	ctx := context.Background()

	// Address cache
	var cache service.AddressCache
	switch cfg.Cache.Driver {
	case "redis":
		opt, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid redis url")
		}
		client := redis.NewClient(opt)
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("cannot connect to redis")
		}
		cache = repository.NewRedisRepository(client, cfg.Cache.RedisPrefix)
	default:
		conn, err := repository.NewPool(ctx, cfg.DBSource)
		if err != nil {
			log.Fatal().Err(err).Msg("cannot connect to db")
		}
		defer conn.Close()
		if cfg.MigrateOnStart {
			if err := repository.Migrate(ctx, conn); err != nil {
				log.Fatal().Err(err).Msg("cannot migrate db")
			}
		}
		cache = repository.NewPostgresRepository(conn)
	}

	// Initialize layers
	geocoder := geocoding.NewClient(
		geocoding.WithBaseURL(cfg.Geocoder.BaseURL),
		geocoding.WithAPIKey(cfg.Geocoder.APIKey),
		geocoding.WithTimeout(cfg.Geocoder.Timeout),
		geocoding.WithRateLimit(cfg.Geocoder.RateLimit),
	)

	resolver := service.NewAddressResolver(cache, geocoder, cfg.Geocoder.Concurrency)
	clusterService := service.NewClusterService(resolver, cfg.Clustering)

	geoCodeHandler := handler.NewGeoCodeHandler(resolver)
	clusterHandler := handler.NewClusterHandler(clusterService)

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	r.GET("/geocode", geoCodeHandler.GeoCode)
	r.GET("/addresses/normalize", handler.Normalize)
	r.POST("/clusters", clusterHandler.Cluster)

	log.Info().Str("address", cfg.ServerAddress).Str("cache", cfg.Cache.Driver).Msg("starting server")
	if err := r.Run(cfg.ServerAddress); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
