package testdb

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"landq-backend/internal/domain/parcel"
	"landq-backend/internal/domain/verification"
	"landq-backend/internal/geometry"
	"landq-backend/pkg/id"
)

var seq atomic.Int64

// SeedParcel stores a parcel with a fresh square boundary that overlaps no
// other seeded parcel.
func SeedParcel(t testing.TB, db *gorm.DB, owner, region string) *parcel.Parcel {
	t.Helper()
	n := float64(seq.Add(1))
	lat, lon := -80+n*0.01, 0.0
	poly, err := geometry.NewPolygon([]geometry.LatLon{
		{Lat: lat, Lon: lon}, {Lat: lat, Lon: lon + 0.005}, {Lat: lat + 0.005, Lon: lon + 0.005}, {Lat: lat + 0.005, Lon: lon},
	})
	if err != nil {
		t.Fatalf("polygon: %v", err)
	}
	data, err := geometry.MarshalGeoJSON(poly)
	if err != nil {
		t.Fatalf("geojson: %v", err)
	}
	env := geometry.Envelope(poly)
	p := &parcel.Parcel{
		ParcelID: id.NewID32(),
		Owner:    owner,
		Region:   region,
		Boundary: data,
		MinLat:   env.MinLat,
		MaxLat:   env.MaxLat,
		MinLon:   env.MinLon,
		MaxLon:   env.MaxLon,
		AreaSqm:  geometry.Area(poly),
	}
	if err := db.WithContext(context.Background()).Create(p).Error; err != nil {
		t.Fatalf("seed parcel: %v", err)
	}
	return p
}

// SeedVerified marks p verified at the given appraisal.
func SeedVerified(t testing.TB, db *gorm.DB, p *parcel.Parcel, appraised int64) *verification.Record {
	t.Helper()
	now := time.Now().UTC()
	rec := &verification.Record{
		ParcelID:       p.ParcelID,
		Region:         p.Region,
		State:          verification.StateVerified,
		RequestedBy:    p.Owner,
		AppraisedValue: appraised,
		RequestedAt:    now,
		VerifiedAt:     &now,
		StateUpdatedAt: now,
	}
	if err := db.WithContext(context.Background()).Create(rec).Error; err != nil {
		t.Fatalf("seed verification: %v", err)
	}
	return rec
}
