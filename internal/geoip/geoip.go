// Package geoip implements model.IPResolver on top of a local MaxMind
// City database. It is optional: when no database is configured the
// checker relies solely on what the identity endpoint reports.
package geoip

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"

	"github.com/mohamedmamdouh22/proxy-checker-app/internal/model"
)

type Resolver struct {
	db *geoip2.Reader
}

// Open loads a GeoIP2/GeoLite2 City database from path.
func Open(path string) (*Resolver, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database: %w", err)
	}
	return &Resolver{db: db}, nil
}

func (r *Resolver) Lookup(ip string) (model.GeoInfo, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return model.GeoInfo{}, fmt.Errorf("invalid ip %q", ip)
	}

	rec, err := r.db.City(parsed)
	if err != nil {
		return model.GeoInfo{}, fmt.Errorf("geoip lookup %s: %w", ip, err)
	}

	return model.GeoInfo{
		Country: rec.Country.Names["en"],
		City:    rec.City.Names["en"],
	}, nil
}

func (r *Resolver) Close() error {
	return r.db.Close()
}
